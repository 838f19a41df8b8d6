package stock_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
	"boutique-system/internal/stock/memstore"
)

func seedItem(store *memstore.Store, qty int32) *models.StockItem {
	return store.AddStockItem(&models.StockItem{
		SKU:       "TSHIRT-M-BLK",
		Name:      "Basic Tee",
		Size:      "M",
		Color:     "black",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString("19.90"),
		IsActive:  true,
	})
}

func TestTryDecrementRejectsInsufficientStock(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	item := seedItem(store, 2)

	err := store.WithinTx(ctx, func(tx stock.Tx) error {
		items, err := tx.StockItemsForUpdate(ctx, []int64{item.ID})
		require.NoError(t, err)

		return stock.TryDecrement(ctx, tx, items[item.ID], 3, stock.Entry{
			Reason:        models.MovementSaleCommit,
			ReferenceKind: models.RefSale,
			ReferenceID:   "S-test",
		})
	})

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, item.ID, insufficient.StockItemID)
	assert.Equal(t, int32(3), insufficient.Requested)
	assert.Equal(t, int32(2), insufficient.Available)

	after, err := store.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), after.Quantity)

	movements, err := store.ListMovements(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestLedgerRecordsOneMovementPerMutation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	item := seedItem(store, 10)

	err := store.WithinTx(ctx, func(tx stock.Tx) error {
		items, err := tx.StockItemsForUpdate(ctx, []int64{item.ID})
		require.NoError(t, err)

		if err := stock.TryDecrement(ctx, tx, items[item.ID], 3, stock.Entry{
			Reason:        models.MovementSaleCommit,
			ReferenceKind: models.RefSale,
			ReferenceID:   "S-test",
		}); err != nil {
			return err
		}
		return stock.Increment(ctx, tx, items[item.ID], 1, stock.Entry{
			Reason:        models.MovementSaleCancel,
			ReferenceKind: models.RefSale,
			ReferenceID:   "1",
		})
	})
	require.NoError(t, err)

	after, err := store.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(8), after.Quantity)

	movements, err := store.ListMovements(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, int32(-3), movements[0].Delta)
	assert.Equal(t, int32(7), movements[0].Resulting)
	assert.Equal(t, models.MovementSaleCommit, movements[0].Reason)

	assert.Equal(t, int32(1), movements[1].Delta)
	assert.Equal(t, int32(8), movements[1].Resulting)
	assert.Equal(t, models.MovementSaleCancel, movements[1].Reason)

	// Movement deltas replay to the final quantity.
	replayed := int32(10)
	for _, mv := range movements {
		replayed += mv.Delta
	}
	assert.Equal(t, after.Quantity, replayed)
}
