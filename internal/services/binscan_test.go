package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festival-cleanup-backend/internal/models"
)

func TestNormalizeBinCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"TRASH_BIN_01", "TRASH_BIN_01"},
		{"trash_bin_01", "TRASH_BIN_01"},
		{"trash-bin-02", "TRASH_BIN_02"},
		{"TRASHBIN02", "TRASH_BIN_02"},
		{" trash bin 2 ", "TRASH_BIN_02"},
		{"03", "TRASH_BIN_03"},
		{"7", "TRASH_BIN_07"},
		{"trash_bin_123", "TRASH_BIN_123"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeBinCode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Canonical output normalizes to itself.
			again, err := NormalizeBinCode(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizeBinCodeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "bin", "TRASH_BIN_", "RECYCLE_01", "TRASH_BIN_XY", "01extra"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizeBinCode(raw)
			assert.ErrorIs(t, err, models.ErrInvalidBinCode)
		})
	}
}

type memBinStore struct{ bins map[string]*models.TrashBin }

func (m *memBinStore) GetByCode(ctx context.Context, festivalID, code string) (*models.TrashBin, error) {
	bin, ok := m.bins[festivalID+"|"+code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return bin, nil
}

type memScanStore struct{ scans []*models.BinScan }

func (m *memScanStore) Create(ctx context.Context, scan *models.BinScan) error {
	m.scans = append(m.scans, scan)
	return nil
}

func TestRecordScan(t *testing.T) {
	festival := testFestival(1000, 200, 100)
	bin := &models.TrashBin{ID: "bin-1", FestivalID: festival.ID, Code: "TRASH_BIN_02"}
	bins := &memBinStore{bins: map[string]*models.TrashBin{festival.ID + "|TRASH_BIN_02": bin}}
	scans := &memScanStore{}
	svc := NewBinScanService(bins, scans, &fakeFestivalGetter{festival: festival})

	scan, resolved, err := svc.RecordScan(context.Background(), "user-1", festival.ID, "trashbin02", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "bin-1", scan.BinID)
	assert.Equal(t, "user-1", scan.UserID)
	assert.Equal(t, "TRASH_BIN_02", resolved.Code)
	require.Len(t, scans.scans, 1)

	_, _, err = svc.RecordScan(context.Background(), "user-1", festival.ID, "trashbin99", nil, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, _, err = svc.RecordScan(context.Background(), "user-1", festival.ID, "not-a-code", nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidBinCode)
	assert.Len(t, scans.scans, 1)
}
