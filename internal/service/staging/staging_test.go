package staging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

func newClockedStore(ttl time.Duration) (*Store, *time.Time) {
	clock := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewStore(ttl, nil)
	store.now = func() time.Time { return clock }
	return store, &clock
}

func TestStageAndTakeOnce(t *testing.T) {
	t.Parallel()

	store, _ := newClockedStore(time.Minute)
	rows := []models.CanonicalRow{{Size: "155 70 R13", Quantity: 2, Line: 2}}

	staged := store.Stage(models.ImportMerge, "stock.xlsx", rows)
	require.NotEmpty(t, staged.Token)
	assert.Equal(t, time.Minute, staged.ExpiresAt.Sub(staged.CreatedAt))

	got, err := store.Take(staged.Token)
	require.NoError(t, err)
	assert.Equal(t, models.ImportMerge, got.Mode)
	assert.Equal(t, "stock.xlsx", got.Source)
	assert.Equal(t, rows, got.Rows)

	_, err = store.Take(staged.Token)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()

	store, _ := newClockedStore(time.Minute)
	a := store.Stage(models.ImportMerge, "a", nil)
	b := store.Stage(models.ImportReplace, "b", nil)
	assert.NotEqual(t, a.Token, b.Token)
	assert.Len(t, store.pending, 2)
}

func TestTake_Expired(t *testing.T) {
	t.Parallel()

	store, clock := newClockedStore(time.Minute)
	staged := store.Stage(models.ImportReplace, "sheet", nil)

	*clock = clock.Add(time.Minute)
	_, err := store.Take(staged.Token)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, store.pending)
}

func TestStage_PrunesExpired(t *testing.T) {
	t.Parallel()

	store, clock := newClockedStore(time.Minute)
	store.Stage(models.ImportMerge, "old", nil)

	*clock = clock.Add(2 * time.Minute)
	fresh := store.Stage(models.ImportMerge, "new", nil)

	assert.Len(t, store.pending, 1)
	_, err := store.Take(fresh.Token)
	assert.NoError(t, err)
}

func TestTake_Unknown(t *testing.T) {
	t.Parallel()

	store := NewStore(0, nil)
	assert.Equal(t, DefaultTTL, store.ttl)
	_, err := store.Take("nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPeekDoesNotConsume(t *testing.T) {
	t.Parallel()

	store, clock := newClockedStore(time.Minute)
	staged := store.Stage(models.ImportReplace, "stock.xlsx", nil)

	got, err := store.Peek(staged.Token)
	require.NoError(t, err)
	assert.Equal(t, models.ImportReplace, got.Mode)

	_, err = store.Take(staged.Token)
	require.NoError(t, err)

	_, err = store.Peek(staged.Token)
	assert.ErrorIs(t, err, models.ErrNotFound)

	expiring := store.Stage(models.ImportMerge, "x", nil)
	*clock = clock.Add(time.Hour)
	_, err = store.Peek(expiring.Token)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
