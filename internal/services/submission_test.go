package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festival-cleanup-backend/internal/config"
	"festival-cleanup-backend/internal/detection"
	"festival-cleanup-backend/internal/models"
)

type memPhotoStore struct {
	mu     sync.Mutex
	photos []*models.TrashPhoto
}

func (m *memPhotoStore) Create(ctx context.Context, photo *models.TrashPhoto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *photo
	m.photos = append(m.photos, &copied)
	return nil
}

func (m *memPhotoStore) RecentHashes(ctx context.Context, userID, festivalID string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hashes []string
	for i := len(m.photos) - 1; i >= 0 && len(hashes) < limit; i-- {
		p := m.photos[i]
		if p.UserID == userID && p.FestivalID == festivalID && p.Hash != "" {
			hashes = append(hashes, p.Hash)
		}
	}
	return hashes, nil
}

func (m *memPhotoStore) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.photos {
		if p.UserID == userID && p.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (m *memPhotoStore) ListByUser(ctx context.Context, userID, festivalID string) ([]*models.TrashPhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TrashPhoto
	for i := len(m.photos) - 1; i >= 0; i-- {
		p := m.photos[i]
		if p.UserID == userID && p.FestivalID == festivalID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFestivalGetter struct{ festival *models.Festival }

func (f *fakeFestivalGetter) GetByID(ctx context.Context, id string) (*models.Festival, error) {
	if f.festival == nil || f.festival.ID != id {
		return nil, models.ErrNotFound
	}
	return f.festival, nil
}

type fakeScanChecker struct{ recent bool }

func (f *fakeScanChecker) HasRecent(ctx context.Context, userID, festivalID string, cutoff time.Time) (bool, error) {
	return f.recent, nil
}

type fakeAnalyzer struct{ summary detection.Summary }

func (f *fakeAnalyzer) Analyze(ctx context.Context, imagePath string) detection.Summary {
	return f.summary
}

type discardSaver struct{}

func (discardSaver) Save(ctx context.Context, festivalID, filename string, r io.Reader) (string, string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", "", err
	}
	return "/tmp/" + filename, "http://localhost/uploads/" + filename, nil
}

func defaultRewards() config.RewardsConfig {
	return config.RewardsConfig{
		DuplicateThreshold: 5,
		DuplicateLookback:  8,
		RateLimitPerMinute: 5,
	}
}

func newTestSubmission(store *memLedgerStore, photos *memPhotoStore, festival *models.Festival,
	summary detection.Summary, rewards config.RewardsConfig) *SubmissionService {
	ledger := NewLedgerService(store, rewards)
	return NewSubmissionService(
		photos,
		&fakeFestivalGetter{festival: festival},
		&fakeScanChecker{},
		ledger,
		&fakeAnalyzer{summary: summary},
		discardSaver{},
		nil,
		rewards,
	)
}

// testPNG renders a small gradient so repeated encodes of the same seed
// produce identical bytes and different seeds produce distinct fingerprints.
func testPNG(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			r, g := uint8(x*4)^(seed&0xfe), uint8(y*4)
			if seed%2 == 1 {
				r, g = 255-r, 255-g
			}
			img.Set(x, y, color.RGBA{R: r, G: g, B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSubmitAcceptsAndRecords(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	festival := testFestival(1000, 500, 100)
	svc := newTestSubmission(store, photos, festival, trashSummary(0.92), defaultRewards())

	res, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 0)), "a.png", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.PhotoActive, res.Photo.Status)
	assert.Equal(t, 100, res.Photo.Points)
	assert.NotEmpty(t, res.Photo.Hash)
	assert.Equal(t, detection.SourceRemote, res.Photo.Source)
	require.NotNil(t, res.Photo.HasTrash)
	assert.True(t, *res.Photo.HasTrash)

	listed, err := svc.ListPhotos(context.Background(), "user-1", festival.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestSubmitRejectsResubmittedImage(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	festival := testFestival(1000, 500, 100)
	svc := newTestSubmission(store, photos, festival, trashSummary(0.9), defaultRewards())

	img := testPNG(t, 0)
	first, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(img), "a.png", nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.PhotoActive, first.Photo.Status)

	second, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(img), "b.png", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PhotoRejected, second.Photo.Status)
	require.NotNil(t, second.Photo.RejectReason)
	assert.Equal(t, models.RejectDuplicate, *second.Photo.RejectReason)
	assert.Zero(t, second.Photo.Points)
}

func TestSubmitDistinctImagesNotDuplicates(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	festival := testFestival(1000, 500, 100)
	svc := newTestSubmission(store, photos, festival, trashSummary(0.9), defaultRewards())

	first, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 0)), "a.png", nil, nil)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 1)), "b.png", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.PhotoActive, first.Photo.Status)
	assert.Equal(t, models.PhotoActive, second.Photo.Status)
}

func TestSubmitUndecodableImageStillProcessed(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	festival := testFestival(1000, 500, 100)
	svc := newTestSubmission(store, photos, festival, trashSummary(0.9), defaultRewards())

	res, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader([]byte("not an image")), "a.bin", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PhotoActive, res.Photo.Status)
	assert.Empty(t, res.Photo.Hash)
}

func TestSubmitRateLimited(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	festival := testFestival(100000, 100000, 100)
	rewards := defaultRewards()
	svc := newTestSubmission(store, photos, festival, trashSummary(0.9), rewards)

	for i := 0; i < rewards.RateLimitPerMinute; i++ {
		_, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, uint8(i*40))), "a.png", nil, nil)
		require.NoError(t, err)
	}

	_, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 250)), "a.png", nil, nil)
	assert.ErrorIs(t, err, models.ErrRateLimited)
}

func TestSubmitOutsideFestival(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	lat, lng, radius := 35.6586, 139.7454, 500
	festival := testFestival(1000, 500, 100)
	festival.CenterLat = &lat
	festival.CenterLng = &lng
	festival.RadiusMeters = &radius
	svc := newTestSubmission(store, photos, festival, trashSummary(0.9), defaultRewards())

	farLat, farLng := 34.6937, 135.5023
	_, err := svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 0)), "a.png", &farLat, &farLng)
	assert.ErrorIs(t, err, models.ErrOutsideFestival)

	// No client coordinates while the festival is geofenced is also a miss.
	_, err = svc.Submit(context.Background(), "user-1", festival.ID, bytes.NewReader(testPNG(t, 0)), "a.png", nil, nil)
	assert.ErrorIs(t, err, models.ErrOutsideFestival)
}

func TestSubmitUnknownFestival(t *testing.T) {
	store := newMemLedgerStore()
	photos := &memPhotoStore{}
	svc := newTestSubmission(store, photos, testFestival(1000, 500, 100), trashSummary(0.9), defaultRewards())

	_, err := svc.Submit(context.Background(), "user-1", "missing", bytes.NewReader(testPNG(t, 0)), "a.png", nil, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
