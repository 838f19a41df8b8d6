package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/sales"
	"boutique-system/internal/stock"
	"boutique-system/internal/stock/memstore"
)

type stubUpserter struct {
	id  int64
	err error

	mu    sync.Mutex
	calls int
}

func (s *stubUpserter) Upsert(ctx context.Context, email, name string) (int64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

func newProcessor(upserter *stubUpserter) (*sales.Processor, *memstore.Store) {
	store := memstore.New()
	return sales.NewProcessor(store, upserter, zap.NewNop()), store
}

func addItem(store *memstore.Store, sku, price string, qty int32) *models.StockItem {
	return store.AddStockItem(&models.StockItem{
		SKU:       sku,
		Name:      sku,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		IsActive:  true,
	})
}

func TestCommitSaleDeductsStockAndUsesServerPrices(t *testing.T) {
	ctx := context.Background()
	upserter := &stubUpserter{id: 42}
	p, store := newProcessor(upserter)

	tee := addItem(store, "TEE-M-BLK", "19.90", 10)
	jeans := addItem(store, "JEANS-32-IND", "59.00", 5)

	receipt, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items: []sales.ItemInput{
			{StockItemID: tee.ID, Quantity: 2},
			{StockItemID: jeans.ID, Quantity: 1},
		},
		CustomerEmail: "jo@example.com",
		CustomerName:  "Jo",
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.True(t, receipt.Subtotal.Equal(decimal.RequireFromString("98.80")),
		"subtotal %s", receipt.Subtotal)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("98.80")))
	require.NotNil(t, receipt.CustomerID)
	assert.Equal(t, int64(42), *receipt.CustomerID)
	assert.Empty(t, receipt.CustomerWarning)

	teeAfter, _ := store.GetStockItem(ctx, tee.ID)
	jeansAfter, _ := store.GetStockItem(ctx, jeans.ID)
	assert.Equal(t, int32(8), teeAfter.Quantity)
	assert.Equal(t, int32(4), jeansAfter.Quantity)

	sale, err := store.GetSale(ctx, receipt.SaleID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleCompleted, sale.Status)
	require.Len(t, sale.Items, 2)

	movements, err := store.ListMovements(ctx, tee.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementSaleCommit, movements[0].Reason)
	assert.Equal(t, receipt.ReceiptNumber, movements[0].ReferenceID)
}

func TestCommitSaleIsAtomicWhenOneLineFails(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})

	a := addItem(store, "A", "10.00", 10)
	b := addItem(store, "B", "10.00", 1)
	c := addItem(store, "C", "10.00", 10)

	_, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items: []sales.ItemInput{
			{StockItemID: a.ID, Quantity: 3},
			{StockItemID: b.ID, Quantity: 2},
			{StockItemID: c.ID, Quantity: 3},
		},
		PaymentMethod: "cash",
	})

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, b.ID, insufficient.StockItemID)

	for _, item := range []*models.StockItem{a, b, c} {
		after, getErr := store.GetStockItem(ctx, item.ID)
		require.NoError(t, getErr)
		assert.Equal(t, item.Quantity, after.Quantity, "item %d must be untouched", item.ID)

		movements, getErr := store.ListMovements(ctx, item.ID)
		require.NoError(t, getErr)
		assert.Empty(t, movements)
	}
}

func TestCommitSaleEmptyCart(t *testing.T) {
	p, _ := newProcessor(&stubUpserter{})
	_, err := p.CommitSale(context.Background(), sales.CommitSaleInput{PaymentMethod: "cash"})
	require.ErrorIs(t, err, stock.ErrEmptyCart)
}

func TestCommitSaleRejectsUnknownAndInactiveItems(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})

	_, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items:         []sales.ItemInput{{StockItemID: 999, Quantity: 1}},
		PaymentMethod: "cash",
	})
	var invalid *stock.InvalidItemError
	require.ErrorAs(t, err, &invalid)

	disabled := store.AddStockItem(&models.StockItem{
		SKU: "OLD", Name: "OLD", Quantity: 5,
		UnitPrice: decimal.RequireFromString("5.00"),
		IsActive:  false,
	})
	_, err = p.CommitSale(ctx, sales.CommitSaleInput{
		Items:         []sales.ItemInput{{StockItemID: disabled.ID, Quantity: 1}},
		PaymentMethod: "cash",
	})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, disabled.ID, invalid.StockItemID)
}

func TestCommitSaleMergesDuplicateLines(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})
	item := addItem(store, "TEE", "10.00", 10)

	receipt, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items: []sales.ItemInput{
			{StockItemID: item.ID, Quantity: 2},
			{StockItemID: item.ID, Quantity: 3},
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	sale, err := store.GetSale(ctx, receipt.SaleID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, int32(5), sale.Items[0].Quantity)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(5), after.Quantity)
}

func TestCommitSaleDiscountNeverPushesTotalNegative(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})
	item := addItem(store, "SOCK", "4.00", 10)

	receipt, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items:          []sales.ItemInput{{StockItemID: item.ID, Quantity: 1}},
		PaymentMethod:  "cash",
		DiscountAmount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.True(t, receipt.Total.IsZero(), "total %s", receipt.Total)
}

func TestCommitSaleReportsCustomerUpsertFailure(t *testing.T) {
	ctx := context.Background()
	upserter := &stubUpserter{err: errors.New("customer db down")}
	p, store := newProcessor(upserter)
	item := addItem(store, "TEE", "10.00", 10)

	receipt, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items:         []sales.ItemInput{{StockItemID: item.ID, Quantity: 1}},
		CustomerEmail: "jo@example.com",
		PaymentMethod: "cash",
	})
	require.NoError(t, err, "sale must commit even when the customer upsert fails")
	assert.Nil(t, receipt.CustomerID)
	assert.NotEmpty(t, receipt.CustomerWarning)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(9), after.Quantity)
}

func TestConcurrentSalesForLastUnit(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})
	item := addItem(store, "LAST", "99.00", 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.CommitSale(ctx, sales.CommitSaleInput{
				Items:         []sales.ItemInput{{StockItemID: item.ID, Quantity: 1}},
				PaymentMethod: "cash",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *stock.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		failures++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(0), after.Quantity)
}

func TestCancelSaleRestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	p, store := newProcessor(&stubUpserter{})
	item := addItem(store, "TEE", "10.00", 10)

	receipt, err := p.CommitSale(ctx, sales.CommitSaleInput{
		Items:         []sales.ItemInput{{StockItemID: item.ID, Quantity: 3}},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	after, _ := store.GetStockItem(ctx, item.ID)
	require.Equal(t, int32(7), after.Quantity)

	cancelled, err := p.CancelSale(ctx, receipt.SaleID)
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	assert.Equal(t, receipt.SaleID, cancelled.ID)
	assert.Equal(t, models.SaleCancelled, cancelled.Status)

	restored, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(10), restored.Quantity)

	sale, _ := store.GetSale(ctx, receipt.SaleID)
	assert.Equal(t, models.SaleCancelled, sale.Status)

	_, err = p.CancelSale(ctx, receipt.SaleID)
	var transition *stock.InvalidTransitionError
	require.ErrorAs(t, err, &transition)

	unchanged, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(10), unchanged.Quantity)
}
