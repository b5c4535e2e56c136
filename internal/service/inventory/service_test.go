package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/treadstock/internal/domain/models"
	"github.com/mamadbah2/treadstock/internal/repository/sqlite"
	"github.com/mamadbah2/treadstock/internal/repository/sqlite/testhelper"
)

type fixture struct {
	svc   *Service
	items *sqlite.ItemRepository
	audit *sqlite.AuditRepository
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testhelper.SetupTestDB(t)
	f := &fixture{
		items: sqlite.NewItemRepository(db),
		audit: sqlite.NewAuditRepository(db),
		clock: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.items, f.audit, sqlite.NewTxManager(db), nil)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func (f *fixture) item(t *testing.T, id int64) models.StockRecord {
	t.Helper()
	record, err := f.items.Get(context.Background(), id)
	require.NoError(t, err)
	return record
}

func (f *fixture) history(t *testing.T, id int64) []models.AuditEntry {
	t.Helper()
	entries, err := f.svc.ItemHistory(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func ptr[T any](v T) *T { return &v }

func TestAddStock_WithoutIDAlwaysCreates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	in := AddStockInput{Size: "155 70 R13", Company: ptr("Acme"), Quantity: 4}

	first, err := f.svc.AddStock(ctx, in)
	require.NoError(t, err)
	second, err := f.svc.AddStock(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "identical fields never merge on add")
	assert.Equal(t, 4, f.item(t, first).Quantity)
	assert.Equal(t, 4, f.item(t, second).Quantity)

	items, err := f.svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAddStock_SameIDAccumulates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddStock(ctx, AddStockInput{ID: ptr(int64(7)), Size: "185 65 R14", Quantity: 3, Note: ptr("first delivery")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = f.svc.AddStock(ctx, AddStockInput{ID: ptr(int64(7)), Size: "185 65 R14", Series: ptr("Eco"), Quantity: 5})
	require.NoError(t, err)

	record := f.item(t, 7)
	assert.Equal(t, 8, record.Quantity)
	require.NotNil(t, record.Series, "descriptive fields are overwritten")
	assert.Equal(t, "Eco", *record.Series)

	entries := f.history(t, 7)
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[0].Change)
	assert.Equal(t, 3, entries[1].Change)
	for _, e := range entries {
		assert.Equal(t, models.ReasonStockIn, e.Reason)
	}
	require.NotNil(t, entries[1].Note)
	assert.Equal(t, "first delivery", *entries[1].Note)
}

func TestAddStock_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddStock(ctx, AddStockInput{Size: "  ", Quantity: 1})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.AddStock(ctx, AddStockInput{Size: "155 70 R13", Quantity: 0})
	require.ErrorIs(t, err, models.ErrValidation)

	items, err := f.svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	entries, err := f.svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveStockByID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddStock(ctx, AddStockInput{Size: "155 70 R13", Company: ptr("Acme"), Quantity: 10})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: id, Quantity: 4, Reason: models.ReasonSale, Note: ptr("invoice 12")}))

	assert.Equal(t, 6, f.item(t, id).Quantity)
	entries := f.history(t, id)
	require.Len(t, entries, 2)
	assert.Equal(t, -4, entries[0].Change)
	assert.Equal(t, models.ReasonSale, entries[0].Reason)
	assert.Equal(t, "155 70 R13", entries[0].Size)
	require.NotNil(t, entries[0].Company)
	assert.Equal(t, "Acme", *entries[0].Company)

	require.NoError(t, f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: id, Quantity: 6, Reason: models.ReasonDamage}))
	assert.Equal(t, 0, f.item(t, id).Quantity, "removing exactly the stock on hand is allowed")
}

func TestRemoveStockByID_InsufficientLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddStock(ctx, AddStockInput{Size: "155 70 R13", Quantity: 3})
	require.NoError(t, err)
	before := f.item(t, id)

	err = f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: id, Quantity: 5, Reason: models.ReasonSale})

	require.ErrorIs(t, err, models.ErrInsufficientStock)
	var insufficient *models.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Current)
	assert.Equal(t, 5, insufficient.Requested)

	assert.Equal(t, before, f.item(t, id))
	assert.Len(t, f.history(t, id), 1)
}

func TestRemoveStockByID_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: 99, Quantity: 1, Reason: models.ReasonSale})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: 99, Quantity: 0, Reason: models.ReasonSale})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = f.svc.RemoveStockByID(ctx, RemoveByIDInput{ID: 99, Quantity: 1, Reason: models.ReasonStockIn})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRemoveStockBySignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	withSeries, err := f.svc.AddStock(ctx, AddStockInput{Size: "205 55 R16", Company: ptr("Acme"), Series: ptr("Sport"), Quantity: 5})
	require.NoError(t, err)
	bare, err := f.svc.AddStock(ctx, AddStockInput{Size: "205 55 R16", Company: ptr("Acme"), Quantity: 5})
	require.NoError(t, err)

	err = f.svc.RemoveStockBySignature(ctx, RemoveBySignatureInput{
		Signature: models.Signature{Size: "205 55 R16", Company: ptr("Acme")},
		Quantity:  2,
		Reason:    models.ReasonReturn,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, f.item(t, withSeries).Quantity, "absent series does not act as a wildcard")
	assert.Equal(t, 3, f.item(t, bare).Quantity)
	entries := f.history(t, bare)
	require.Len(t, entries, 2)
	assert.Equal(t, -2, entries[0].Change)
	assert.Equal(t, models.ReasonReturn, entries[0].Reason)

	err = f.svc.RemoveStockBySignature(ctx, RemoveBySignatureInput{
		Signature: models.Signature{Size: "205 55 R16"},
		Quantity:  1,
		Reason:    models.ReasonSale,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.svc.RemoveStockBySignature(ctx, RemoveBySignatureInput{
		Signature: models.Signature{Size: "205 55 R16", Company: ptr("Acme")},
		Quantity:  4,
		Reason:    models.ReasonSale,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 3, f.item(t, bare).Quantity)
}

func TestBlankOptionalFieldsAreStoredAsAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddStock(ctx, AddStockInput{Size: "155 70 R13", Company: ptr(""), Series: ptr("  "), Note: ptr(" "), Quantity: 3})
	require.NoError(t, err)

	stored := f.item(t, id)
	assert.Nil(t, stored.Company)
	assert.Nil(t, stored.Series)
	entries := f.history(t, id)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Company)
	assert.Nil(t, entries[0].Note)

	err = f.svc.RemoveStockBySignature(ctx, RemoveBySignatureInput{
		Signature: models.Signature{Size: "155 70 R13"},
		Quantity:  1,
		Reason:    models.ReasonSale,
	})
	require.NoError(t, err)

	err = f.svc.RemoveStockBySignature(ctx, RemoveBySignatureInput{
		Signature: models.Signature{Size: " 155 70 R13 ", Company: ptr(" "), Series: ptr("")},
		Quantity:  1,
		Reason:    models.ReasonDamage,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.item(t, id).Quantity)

	result, err := f.svc.MergeByIdentifierThenSignature(ctx, []models.CanonicalRow{{Size: "155 70 R13", Quantity: 4, Line: 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MergedBySignature)
	assert.Equal(t, []int64{id}, result.ItemIDs)

	items, err := f.svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}
