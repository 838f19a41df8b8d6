// Package sales owns the all-or-nothing sale commit: either every line item
// is deducted from stock and exactly one sale record exists, or nothing
// changed at all.
package sales

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/customers"
	"boutique-system/internal/stock"
)

type Processor struct {
	store     stock.Store
	customers customers.Upserter
	logger    *zap.Logger
}

func NewProcessor(store stock.Store, upserter customers.Upserter, logger *zap.Logger) *Processor {
	return &Processor{
		store:     store,
		customers: upserter,
		logger:    logger,
	}
}

type ItemInput struct {
	StockItemID int64
	Quantity    int32
}

type CommitSaleInput struct {
	Items           []ItemInput
	CustomerEmail   string
	CustomerName    string
	PaymentMethod   string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
}

type Receipt struct {
	SaleID          int64
	ReceiptNumber   string
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	CustomerID      *int64
	CustomerWarning string
}

// CommitSale validates the cart, deducts every line inside one transaction
// and persists the sale. Prices always come from the stock item row; a
// client-supplied price is never trusted.
func (p *Processor) CommitSale(ctx context.Context, in CommitSaleInput) (*Receipt, error) {
	if len(in.Items) == 0 {
		return nil, stock.ErrEmptyCart
	}

	quantities, ids, err := aggregateLines(in.Items)
	if err != nil {
		return nil, err
	}

	receiptNumber := "S-" + uuid.NewString()
	sale := &models.Sale{
		ReceiptNumber: receiptNumber,
		PaymentMethod: in.PaymentMethod,
		Status:        models.SaleCompleted,
	}

	err = p.store.WithinTx(ctx, func(tx stock.Tx) error {
		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, id := range ids {
			item, ok := items[id]
			if !ok {
				return &stock.InvalidItemError{StockItemID: id, Reason: "unknown stock item"}
			}
			if !item.IsActive {
				return &stock.InvalidItemError{StockItemID: id, Reason: "item is disabled"}
			}

			qty := quantities[id]
			entry := stock.Entry{
				Reason:        models.MovementSaleCommit,
				ReferenceKind: models.RefSale,
				ReferenceID:   receiptNumber,
			}
			if err := stock.TryDecrement(ctx, tx, item, qty, entry); err != nil {
				return err
			}

			lineTotal := item.UnitPrice.Mul(decimal.NewFromInt32(qty))
			subtotal = subtotal.Add(lineTotal)
			sale.Items = append(sale.Items, models.SaleItem{
				StockItemID: id,
				Quantity:    qty,
				UnitPrice:   item.UnitPrice,
				LineTotal:   lineTotal,
			})
		}

		discount := subtotal.Mul(in.DiscountPercent).Div(decimal.NewFromInt(100)).
			Add(in.DiscountAmount).Round(2)
		total := subtotal.Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		sale.Subtotal = subtotal
		sale.DiscountAmount = discount
		sale.Total = total
		return tx.CreateSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		SaleID:         sale.ID,
		ReceiptNumber:  sale.ReceiptNumber,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		Total:          sale.Total,
	}

	// The sale is committed at this point. A customer upsert failure is
	// reported, never rolled back into the sale.
	if in.CustomerEmail != "" {
		customerID, err := p.customers.Upsert(ctx, in.CustomerEmail, in.CustomerName)
		if err != nil {
			p.logger.Warn("customer upsert failed after sale commit",
				zap.Int64("sale_id", sale.ID),
				zap.String("customer_email", in.CustomerEmail),
				zap.Error(err))
			receipt.CustomerWarning = fmt.Sprintf("sale recorded, but customer record update failed: %v", err)
		} else {
			receipt.CustomerID = &customerID
		}
	}

	p.logger.Info("sale committed",
		zap.Int64("sale_id", sale.ID),
		zap.String("receipt_number", sale.ReceiptNumber),
		zap.String("total", sale.Total.String()))
	return receipt, nil
}

// CancelSale voids a completed sale and puts every deducted unit back.
// It returns the cancelled sale.
func (p *Processor) CancelSale(ctx context.Context, id int64) (*models.Sale, error) {
	var cancelled *models.Sale
	err := p.store.WithinTx(ctx, func(tx stock.Tx) error {
		sale, err := tx.SaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status != models.SaleCompleted {
			return &stock.InvalidTransitionError{
				Entity: "sale", ID: id,
				From: string(sale.Status), To: string(models.SaleCancelled),
			}
		}

		ids := make([]int64, 0, len(sale.Items))
		for _, line := range sale.Items {
			ids = append(ids, line.StockItemID)
		}
		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		for _, line := range sale.Items {
			item, ok := items[line.StockItemID]
			if !ok {
				return &stock.NotFoundError{Entity: "stock item", ID: line.StockItemID}
			}
			entry := stock.Entry{
				Reason:        models.MovementSaleCancel,
				ReferenceKind: models.RefSale,
				ReferenceID:   strconv.FormatInt(sale.ID, 10),
			}
			if err := stock.Increment(ctx, tx, item, line.Quantity, entry); err != nil {
				return err
			}
		}

		sale.Status = models.SaleCancelled
		if err := tx.SaveSale(ctx, sale); err != nil {
			return err
		}
		cancelled = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (p *Processor) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	return p.store.GetSale(ctx, id)
}

// aggregateLines merges duplicate lines for the same stock item and returns
// the touched ids in ascending order, which is also the lock order.
func aggregateLines(items []ItemInput) (map[int64]int32, []int64, error) {
	quantities := make(map[int64]int32, len(items))
	var ids []int64
	for _, line := range items {
		if line.Quantity <= 0 {
			return nil, nil, &stock.InvalidItemError{
				StockItemID: line.StockItemID,
				Reason:      "quantity must be greater than 0",
			}
		}
		if _, ok := quantities[line.StockItemID]; !ok {
			ids = append(ids, line.StockItemID)
		}
		quantities[line.StockItemID] += line.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return quantities, ids, nil
}
