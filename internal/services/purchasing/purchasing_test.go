package purchasing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/purchasing"
	"boutique-system/internal/stock"
	"boutique-system/internal/stock/memstore"
)

func newProcessor() (*purchasing.Processor, *memstore.Store) {
	store := memstore.New()
	return purchasing.NewProcessor(store, zap.NewNop()), store
}

func addItem(store *memstore.Store, qty int32) *models.StockItem {
	return store.AddStockItem(&models.StockItem{
		SKU:      "COAT-L-CAM",
		Name:     "Wool Coat",
		Quantity: qty,
		UnitCost: decimal.RequireFromString("40.00"),
		IsActive: true,
	})
}

func TestReceiveOrderBooksStockIn(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor()
	item := addItem(store, 10)

	order, err := p.CreateOrder(ctx, purchasing.CreateInput{
		SupplierName: "Northline Textiles",
		Items: []purchasing.ItemInput{{
			StockItemID: item.ID,
			Quantity:    5,
			UnitCost:    decimal.RequireFromString("42.50"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderPending, order.Status)

	// Creating the order has no stock effect.
	before, _ := store.GetStockItem(ctx, item.ID)
	require.Equal(t, int32(10), before.Quantity)

	received, err := p.ReceiveOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(15), after.Quantity)
	assert.True(t, after.UnitCost.Equal(decimal.RequireFromString("42.50")),
		"unit cost refreshed from the receipt, got %s", after.UnitCost)

	movements, _ := store.ListMovements(ctx, item.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementPurchaseReceipt, movements[0].Reason)
	assert.Equal(t, int32(5), movements[0].Delta)
	assert.Equal(t, models.RefPurchaseOrder, movements[0].ReferenceKind)
}

func TestReceiveOrderTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor()
	item := addItem(store, 10)

	order, err := p.CreateOrder(ctx, purchasing.CreateInput{
		SupplierName: "Northline Textiles",
		Items: []purchasing.ItemInput{{
			StockItemID: item.ID,
			Quantity:    5,
			UnitCost:    decimal.RequireFromString("42.50"),
		}},
	})
	require.NoError(t, err)

	_, err = p.ReceiveOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = p.ReceiveOrder(ctx, order.ID)
	var transition *stock.InvalidTransitionError
	require.ErrorAs(t, err, &transition)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(15), after.Quantity, "stock is booked in at most once")
}

func TestCancelOrderHasNoStockEffect(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor()
	item := addItem(store, 10)

	order, err := p.CreateOrder(ctx, purchasing.CreateInput{
		SupplierName: "Northline Textiles",
		Items: []purchasing.ItemInput{{
			StockItemID: item.ID,
			Quantity:    5,
			UnitCost:    decimal.RequireFromString("42.50"),
		}},
	})
	require.NoError(t, err)

	cancelled, err := p.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderCancelled, cancelled.Status)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(10), after.Quantity)

	_, err = p.ReceiveOrder(ctx, order.ID)
	var transition *stock.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor()
	item := addItem(store, 10)

	_, err := p.CreateOrder(ctx, purchasing.CreateInput{SupplierName: "Northline Textiles"})
	require.ErrorIs(t, err, stock.ErrEmptyCart)

	_, err = p.CreateOrder(ctx, purchasing.CreateInput{
		Items: []purchasing.ItemInput{{StockItemID: item.ID, Quantity: 1, UnitCost: decimal.Zero}},
	})
	var invalid *stock.InvalidItemError
	require.ErrorAs(t, err, &invalid)

	_, err = p.CreateOrder(ctx, purchasing.CreateInput{
		SupplierName: "Northline Textiles",
		Items:        []purchasing.ItemInput{{StockItemID: item.ID, Quantity: 0, UnitCost: decimal.Zero}},
	})
	require.ErrorAs(t, err, &invalid)
}
