package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festival-cleanup-backend/internal/config"
	"festival-cleanup-backend/internal/detection"
	"festival-cleanup-backend/internal/models"
)

// memLedgerStore is an in-memory LedgerStore honoring the same contract as
// the SQL implementation: decide runs under a lock against committed state
// and the verdict is applied atomically.
type memLedgerStore struct {
	mu            sync.Mutex
	summaries     map[string]*models.UserDailySummary
	photos        map[string]*models.TrashPhoto
	festivalSpent map[string]int
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{
		summaries:     make(map[string]*models.UserDailySummary),
		photos:        make(map[string]*models.TrashPhoto),
		festivalSpent: make(map[string]int),
	}
}

func (m *memLedgerStore) addPhoto(photo *models.TrashPhoto) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *photo
	m.photos[photo.ID] = &copied
}

func (m *memLedgerStore) photo(id string) models.TrashPhoto {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.photos[id]
}

func (m *memLedgerStore) ApplyVerification(ctx context.Context, photoID, userID, festivalID, date string,
	decide func(models.LedgerView) models.Verdict) (models.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID + "|" + festivalID + "|" + date
	summary := m.summaries[key]
	if summary == nil {
		summary = &models.UserDailySummary{UserID: userID, FestivalID: festivalID, Date: date}
		m.summaries[key] = summary
	}

	verdict := decide(models.LedgerView{Summary: *summary, FestivalSpent: m.festivalSpent[festivalID]})

	if verdict.Status != models.PhotoPending {
		if photo, ok := m.photos[photoID]; ok {
			photo.Status = verdict.Status
			photo.Points = verdict.Points
			if verdict.Reason != "" {
				reason := verdict.Reason
				photo.RejectReason = &reason
			}
		}
	}
	if verdict.Status == models.PhotoActive {
		summary.TotalActive += verdict.Points
		m.festivalSpent[festivalID] += verdict.Points
	}
	return verdict, nil
}

func boolPtr(b bool) *bool { return &b }

func trashSummary(conf float64) detection.Summary {
	count := 1
	return detection.Summary{
		HasTrash:      boolPtr(true),
		TrashCount:    &count,
		MaxConfidence: &conf,
		Source:        detection.SourceRemote,
	}
}

func noTrashSummary() detection.Summary {
	count := 0
	return detection.Summary{
		HasTrash:   boolPtr(false),
		TrashCount: &count,
		Source:     detection.SourceRemote,
	}
}

func testFestival(budget, cap, perPhoto int) *models.Festival {
	return &models.Festival{
		ID:              "fest-1",
		Name:            "Riverside Clean-up",
		Budget:          budget,
		PerUserDailyCap: cap,
		PerPhotoPoint:   perPhoto,
		CreatedAt:       time.Now(),
	}
}

func testPhoto(id, userID, festivalID string) *models.TrashPhoto {
	return &models.TrashPhoto{
		ID:         id,
		UserID:     userID,
		FestivalID: festivalID,
		Status:     models.PhotoPending,
		CreatedAt:  time.Now(),
	}
}

func TestDecideOutcomes(t *testing.T) {
	festival := testFestival(1000, 200, 100)
	view := models.LedgerView{}

	tests := []struct {
		name       string
		in         VerifyInput
		requireBin bool
		status     models.PhotoStatus
		reason     string
	}{
		{
			name:   "accepted",
			in:     VerifyInput{Festival: festival, Detection: trashSummary(0.9)},
			status: models.PhotoActive,
		},
		{
			name:   "duplicate wins over everything",
			in:     VerifyInput{Festival: festival, Duplicate: true, Detection: detection.Summary{Source: detection.SourceUnknown}},
			status: models.PhotoRejected,
			reason: models.RejectDuplicate,
		},
		{
			name:   "unknown detection stays pending",
			in:     VerifyInput{Festival: festival, Detection: detection.Summary{Source: detection.SourceUnknown}},
			status: models.PhotoPending,
		},
		{
			name:   "no trash",
			in:     VerifyInput{Festival: festival, Detection: noTrashSummary()},
			status: models.PhotoRejected,
			reason: models.RejectNoTrash,
		},
		{
			name:       "missing corroborating scan",
			in:         VerifyInput{Festival: festival, Detection: trashSummary(0.8)},
			requireBin: true,
			status:     models.PhotoRejected,
			reason:     models.RejectNoBinScan,
		},
		{
			name:       "corroborated scan accepted",
			in:         VerifyInput{Festival: festival, Detection: trashSummary(0.8), HasRecentBinScan: true},
			requireBin: true,
			status:     models.PhotoActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := decide(tt.in, view, tt.requireBin)
			assert.Equal(t, tt.status, verdict.Status)
			assert.Equal(t, tt.reason, verdict.Reason)
			if tt.status == models.PhotoActive {
				assert.Equal(t, festival.PerPhotoPoint, verdict.Points)
			} else {
				assert.Zero(t, verdict.Points)
			}
		})
	}
}

func TestDecideNoPartialAward(t *testing.T) {
	festival := testFestival(1000, 200, 100)

	// 150 of the 200-point cap already used: a full 100-point award no longer
	// fits, and nothing smaller is granted.
	view := models.LedgerView{Summary: models.UserDailySummary{TotalActive: 150}}
	verdict := decide(VerifyInput{Festival: festival, Detection: trashSummary(0.9)}, view, false)
	assert.Equal(t, models.PhotoRejected, verdict.Status)
	assert.Equal(t, models.RejectDailyCap, verdict.Reason)
	assert.Zero(t, verdict.Points)
}

func TestVerifyDailyCapConcurrent(t *testing.T) {
	store := newMemLedgerStore()
	ledger := NewLedgerService(store, config.RewardsConfig{})
	festival := testFestival(10000, 200, 100)

	ids := []string{"p1", "p2", "p3"}
	for _, id := range ids {
		store.addPhoto(testPhoto(id, "user-1", festival.ID))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(photoID string) {
			defer wg.Done()
			_, err := ledger.Verify(context.Background(), VerifyInput{
				Photo:     testPhoto(photoID, "user-1", festival.ID),
				Festival:  festival,
				Date:      "2026-09-01",
				Detection: trashSummary(0.9),
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	active, rejected := 0, 0
	for _, id := range ids {
		switch photo := store.photo(id); photo.Status {
		case models.PhotoActive:
			active++
			assert.Equal(t, 100, photo.Points)
		case models.PhotoRejected:
			rejected++
			require.NotNil(t, photo.RejectReason)
			assert.Equal(t, models.RejectDailyCap, *photo.RejectReason)
			assert.Zero(t, photo.Points)
		default:
			t.Fatalf("unexpected status %s for photo %s", photo.Status, id)
		}
	}
	assert.Equal(t, 2, active)
	assert.Equal(t, 1, rejected)
}

func TestVerifyBudgetExhaustion(t *testing.T) {
	store := newMemLedgerStore()
	ledger := NewLedgerService(store, config.RewardsConfig{})
	festival := testFestival(150, 1000, 100)

	store.addPhoto(testPhoto("p1", "user-1", festival.ID))
	store.addPhoto(testPhoto("p2", "user-2", festival.ID))

	var wg sync.WaitGroup
	for photoID, userID := range map[string]string{"p1": "user-1", "p2": "user-2"} {
		wg.Add(1)
		go func(photoID, userID string) {
			defer wg.Done()
			_, err := ledger.Verify(context.Background(), VerifyInput{
				Photo:     testPhoto(photoID, userID, festival.ID),
				Festival:  festival,
				Date:      "2026-09-01",
				Detection: trashSummary(0.7),
			})
			assert.NoError(t, err)
		}(photoID, userID)
	}
	wg.Wait()

	statuses := map[models.PhotoStatus]int{}
	for _, id := range []string{"p1", "p2"} {
		statuses[store.photo(id).Status]++
	}
	assert.Equal(t, 1, statuses[models.PhotoActive])
	assert.Equal(t, 1, statuses[models.PhotoRejected])
}

func TestVerifyUnknownDetectionMutatesNothing(t *testing.T) {
	store := newMemLedgerStore()
	ledger := NewLedgerService(store, config.RewardsConfig{})
	festival := testFestival(1000, 200, 100)
	store.addPhoto(testPhoto("p1", "user-1", festival.ID))

	verdict, err := ledger.Verify(context.Background(), VerifyInput{
		Photo:     testPhoto("p1", "user-1", festival.ID),
		Festival:  festival,
		Date:      "2026-09-01",
		Detection: detection.Summary{Source: detection.SourceUnknown},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PhotoPending, verdict.Status)
	assert.Equal(t, models.PhotoPending, store.photo("p1").Status)
	assert.Zero(t, store.summaries["user-1|"+festival.ID+"|2026-09-01"].TotalActive)
	assert.Zero(t, store.festivalSpent[festival.ID])
}
