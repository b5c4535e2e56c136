package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

type stubItems struct {
	items []models.StockRecord
	err   error
}

func (s stubItems) ListItems(context.Context) ([]models.StockRecord, error) {
	return s.items, s.err
}

func str(v string) *string { return &v }

func sampleItems() []models.StockRecord {
	return []models.StockRecord{
		{ID: 1, Size: "155 70 R13", Company: str("Michelin"), Quantity: 12},
		{ID: 2, Size: "185 65 R14", Company: str("Bridgestone"), Quantity: 3},
		{ID: 3, Size: "205 55 R16", Quantity: 0},
		{ID: 14, Size: "175 70 R13", Company: str("Apollo"), Series: str("Amazer"), Quantity: 3},
	}
}

func newTestService(items stubItems) *Service {
	svc := NewService(items, 5, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC) }
	return svc
}

func TestStats(t *testing.T) {
	t.Parallel()

	stats, err := newTestService(stubItems{items: sampleItems()}).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalUnits: 18, DistinctItems: 4}, stats)

	stats, err = newTestService(stubItems{}).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, stats)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	svc := newTestService(stubItems{items: sampleItems()})
	ids := func(items []models.StockRecord) []int64 {
		out := make([]int64, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	tests := []struct {
		q    string
		want []int64
	}{
		{"", []int64{1, 2, 3, 14}},
		{"   ", []int64{1, 2, 3, 14}},
		{"michelin", []int64{1}},
		{"R13", []int64{1, 14}},
		{"4", []int64{2, 14}},
		{"amazer", []int64{}},
		{"nothing", []int64{}},
	}
	for _, tt := range tests {
		got, err := svc.Search(context.Background(), tt.q)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ids(got), "query %q", tt.q)
	}
}

func TestLowStock_SortedByQuantityThenID(t *testing.T) {
	t.Parallel()

	low, err := newTestService(stubItems{items: sampleItems()}).LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, int64(3), low[0].ID)
	assert.Equal(t, int64(2), low[1].ID)
	assert.Equal(t, int64(14), low[2].ID)
}

func TestLowStockDigest(t *testing.T) {
	t.Parallel()

	digest, count, err := newTestService(stubItems{items: sampleItems()}).LowStockDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "Low stock (2025-03-14): 3 item(s) at or below 5.\n"+
		"- #3 205 55 R16 / - / -: 0\n"+
		"- #2 185 65 R14 / Bridgestone / -: 3\n"+
		"- #14 175 70 R13 / Apollo / Amazer: 3", digest)

	digest, count, err = newTestService(stubItems{items: sampleItems()[:1]}).LowStockDigest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, digest)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	snapshot, err := newTestService(stubItems{items: sampleItems()}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18, snapshot.TotalUnits)
	assert.Equal(t, 3, snapshot.LowStockCount)
	assert.Equal(t, 5, snapshot.LowStockThreshold)
	assert.Len(t, snapshot.Items, 4)
}

func TestErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := newTestService(stubItems{err: boom})

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = svc.Search(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, _, err = svc.LowStockDigest(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewService_Threshold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLowStockThreshold, NewService(stubItems{}, -1, nil).Threshold())

	svc := NewService(stubItems{items: sampleItems()}, 0, nil)
	assert.Equal(t, 0, svc.Threshold())

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(3), low[0].ID)
}
