// Package exchanges processes returns and exchanges against a prior sale.
// Creating a record never touches stock; the ledger effect happens exactly
// once, on the transition to completed.
package exchanges

import (
	"context"
	"sort"
	"strconv"

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
	StockItemID    int64
	Quantity       int32
	NewStockItemID *int64 // exchanges only
	NewQuantity    *int32
}

type CreateInput struct {
	SaleID int64
	Kind   models.ExchangeKind
	Items  []ItemInput
}

func (p *Processor) Create(ctx context.Context, in CreateInput) (*models.ExchangeReturn, error) {
	if in.Kind != models.KindReturn && in.Kind != models.KindExchange {
		return nil, &stock.InvalidItemError{Reason: "kind must be return or exchange"}
	}
	if len(in.Items) == 0 {
		return nil, stock.ErrEmptyCart
	}

	sale, err := p.store.GetSale(ctx, in.SaleID)
	if err != nil {
		return nil, err
	}

	soldQty := make(map[int64]int32, len(sale.Items))
	for _, line := range sale.Items {
		soldQty[line.StockItemID] += line.Quantity
	}

	record := &models.ExchangeReturn{
		Kind:   in.Kind,
		SaleID: sale.ID,
		Status: models.ExchangePending,
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &stock.InvalidItemError{
				StockItemID: line.StockItemID,
				Reason:      "quantity must be greater than 0",
			}
		}
		if line.Quantity > soldQty[line.StockItemID] {
			return nil, &stock.InvalidItemError{
				StockItemID: line.StockItemID,
				Reason:      "quantity exceeds what the original sale contains",
			}
		}
		soldQty[line.StockItemID] -= line.Quantity
		if in.Kind == models.KindExchange {
			if line.NewStockItemID == nil || line.NewQuantity == nil || *line.NewQuantity <= 0 {
				return nil, &stock.InvalidItemError{
					StockItemID: line.StockItemID,
					Reason:      "exchange lines require a replacement item and quantity",
				}
			}
		}
		record.Items = append(record.Items, models.ExchangeReturnItem{
			StockItemID:    line.StockItemID,
			Quantity:       line.Quantity,
			NewStockItemID: line.NewStockItemID,
			NewQuantity:    line.NewQuantity,
		})
	}

	err = p.store.WithinTx(ctx, func(tx stock.Tx) error {
		return tx.CreateExchangeReturn(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

var allowedTransitions = map[models.ExchangeStatus][]models.ExchangeStatus{
	models.ExchangePending:  {models.ExchangeApproved, models.ExchangeRejected, models.ExchangeCancelled},
	models.ExchangeApproved: {models.ExchangeCompleted, models.ExchangeCancelled},
}

func transitionAllowed(from, to models.ExchangeStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus drives the state machine. Only the completed transition
// mutates stock, and for an exchange the restore and the replacement
// decrement succeed or fail together.
func (p *Processor) UpdateStatus(ctx context.Context, id int64, to models.ExchangeStatus, notes *string) (*models.ExchangeReturn, error) {
	var result *models.ExchangeReturn

	err := p.store.WithinTx(ctx, func(tx stock.Tx) error {
		record, err := tx.ExchangeReturnForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !transitionAllowed(record.Status, to) {
			return &stock.InvalidTransitionError{
				Entity: "exchange/return", ID: id,
				From: string(record.Status), To: string(to),
			}
		}

		if to == models.ExchangeCompleted {
			if err := p.applyStockEffect(ctx, tx, record); err != nil {
				return err
			}
		}

		record.Status = to
		if notes != nil {
			record.ApprovalNotes = notes
		}
		if err := tx.SaveExchangeReturn(ctx, record); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("exchange/return status updated",
		zap.Int64("id", id),
		zap.String("status", string(to)))
	return result, nil
}

func (p *Processor) Get(ctx context.Context, id int64) (*models.ExchangeReturn, error) {
	return p.store.GetExchangeReturn(ctx, id)
}

func (p *Processor) applyStockEffect(ctx context.Context, tx stock.Tx, record *models.ExchangeReturn) error {
	idSet := make(map[int64]struct{})
	for _, line := range record.Items {
		idSet[line.StockItemID] = struct{}{}
		if line.NewStockItemID != nil {
			idSet[*line.NewStockItemID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items, err := tx.StockItemsForUpdate(ctx, ids)
	if err != nil {
		return err
	}

	ref := strconv.FormatInt(record.ID, 10)
	for _, line := range record.Items {
		original, ok := items[line.StockItemID]
		if !ok {
			return &stock.NotFoundError{Entity: "stock item", ID: line.StockItemID}
		}
		restore := stock.Entry{
			Reason:        models.MovementExchangeRestore,
			ReferenceKind: models.RefExchange,
			ReferenceID:   ref,
		}
		if err := stock.Increment(ctx, tx, original, line.Quantity, restore); err != nil {
			return err
		}

		if record.Kind != models.KindExchange {
			continue
		}
		replacement, ok := items[*line.NewStockItemID]
		if !ok {
			return &stock.InvalidItemError{StockItemID: *line.NewStockItemID, Reason: "unknown stock item"}
		}
		issue := stock.Entry{
			Reason:        models.MovementExchangeIssue,
			ReferenceKind: models.RefExchange,
			ReferenceID:   ref,
		}
		// A failed decrement here aborts the whole transition, taking the
		// restore above with it.
		if err := stock.TryDecrement(ctx, tx, replacement, *line.NewQuantity, issue); err != nil {
			return err
		}
	}
	return nil
}
