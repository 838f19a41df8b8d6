package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
)

func TestWithinTxRollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	store := New()
	item := store.AddStockItem(&models.StockItem{
		SKU:       "JEANS-32-IND",
		Name:      "Slim Jeans",
		Quantity:  4,
		UnitPrice: decimal.RequireFromString("59.00"),
		IsActive:  true,
	})

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx stock.Tx) error {
		items, err := tx.StockItemsForUpdate(ctx, []int64{item.ID})
		require.NoError(t, err)

		items[item.ID].Quantity = 0
		require.NoError(t, tx.SaveStockItem(ctx, items[item.ID]))
		require.NoError(t, tx.AppendMovement(ctx, &models.StockMovement{
			StockItemID: item.ID,
			Delta:       -4,
			Resulting:   0,
			Reason:      models.MovementSaleCommit,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := store.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), after.Quantity)

	movements, err := store.ListMovements(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	item := store.AddStockItem(&models.StockItem{
		SKU:      "SCARF-OS-RED",
		Name:     "Wool Scarf",
		Quantity: 7,
		IsActive: true,
	})

	got, err := store.GetStockItem(ctx, item.ID)
	require.NoError(t, err)

	got.Quantity = 0

	again, err := store.GetStockItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(7), again.Quantity)
}

func TestStockItemsForUpdateSkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := New()
	item := store.AddStockItem(&models.StockItem{SKU: "HAT-OS-GRN", Name: "Beanie", Quantity: 1, IsActive: true})

	err := store.WithinTx(ctx, func(tx stock.Tx) error {
		items, err := tx.StockItemsForUpdate(ctx, []int64{item.ID, 999})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		_, ok := items[999]
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}
