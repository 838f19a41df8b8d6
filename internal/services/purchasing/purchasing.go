// Package purchasing handles supplier purchase orders and goods receipt.
package purchasing

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
)

type Processor struct {
	store  stock.Store
	logger *zap.Logger
}

func NewProcessor(store stock.Store, logger *zap.Logger) *Processor {
	return &Processor{store: store, logger: logger}
}

type ItemInput struct {
	StockItemID int64
	Quantity    int32
	UnitCost    decimal.Decimal
}

type CreateInput struct {
	SupplierName string
	Items        []ItemInput
}

func (p *Processor) CreateOrder(ctx context.Context, in CreateInput) (*models.PurchaseOrder, error) {
	if in.SupplierName == "" {
		return nil, &stock.InvalidItemError{Reason: "supplier name is required"}
	}
	if len(in.Items) == 0 {
		return nil, stock.ErrEmptyCart
	}

	order := &models.PurchaseOrder{
		SupplierName: in.SupplierName,
		Status:       models.PurchaseOrderPending,
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &stock.InvalidItemError{
				StockItemID: line.StockItemID,
				Reason:      "quantity must be greater than 0",
			}
		}
		if line.UnitCost.IsNegative() {
			return nil, &stock.InvalidItemError{
				StockItemID: line.StockItemID,
				Reason:      "unit cost cannot be negative",
			}
		}
		order.Items = append(order.Items, models.PurchaseOrderItem{
			StockItemID: line.StockItemID,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
		})
	}

	err := p.store.WithinTx(ctx, func(tx stock.Tx) error {
		return tx.CreatePurchaseOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReceiveOrder books the goods in. It increments every line, refreshes the
// item's unit cost from the order and stamps the receipt time. A second call
// on the same order is rejected, so the stock effect happens at most once.
func (p *Processor) ReceiveOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var result *models.PurchaseOrder

	err := p.store.WithinTx(ctx, func(tx stock.Tx) error {
		order, err := tx.PurchaseOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != models.PurchaseOrderPending {
			return &stock.InvalidTransitionError{
				Entity: "purchase order", ID: id,
				From: string(order.Status), To: string(models.PurchaseOrderReceived),
			}
		}

		ids := make([]int64, 0, len(order.Items))
		for _, line := range order.Items {
			ids = append(ids, line.StockItemID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		ref := strconv.FormatInt(order.ID, 10)
		for _, line := range order.Items {
			item, ok := items[line.StockItemID]
			if !ok {
				return &stock.NotFoundError{Entity: "stock item", ID: line.StockItemID}
			}
			item.UnitCost = line.UnitCost
			entry := stock.Entry{
				Reason:        models.MovementPurchaseReceipt,
				ReferenceKind: models.RefPurchaseOrder,
				ReferenceID:   ref,
			}
			if err := stock.Increment(ctx, tx, item, line.Quantity, entry); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = models.PurchaseOrderReceived
		order.ReceivedAt = &now
		if err := tx.SavePurchaseOrder(ctx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("purchase order received",
		zap.Int64("purchase_order_id", id),
		zap.Int("lines", len(result.Items)))
	return result, nil
}

func (p *Processor) CancelOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var result *models.PurchaseOrder

	err := p.store.WithinTx(ctx, func(tx stock.Tx) error {
		order, err := tx.PurchaseOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != models.PurchaseOrderPending {
			return &stock.InvalidTransitionError{
				Entity: "purchase order", ID: id,
				From: string(order.Status), To: string(models.PurchaseOrderCancelled),
			}
		}
		order.Status = models.PurchaseOrderCancelled
		if err := tx.SavePurchaseOrder(ctx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Processor) GetOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	return p.store.GetPurchaseOrder(ctx, id)
}
