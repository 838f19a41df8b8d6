package stock

import (
	"context"

	"boutique-system/internal/database/models"
)

// Entry attributes a ledger mutation to the workflow that caused it.
type Entry struct {
	Reason        models.MovementReason
	ReferenceKind models.ReferenceKind
	ReferenceID   string
	Notes         *string
}

// TryDecrement applies the check-then-mutate rule: the quantity may only go
// down if the result stays non-negative. It must run inside the caller's
// transaction, on a row the caller has already locked via
// StockItemsForUpdate.
func TryDecrement(ctx context.Context, tx Tx, item *models.StockItem, qty int32, entry Entry) error {
	if item.Quantity < qty {
		return &InsufficientStockError{
			StockItemID: item.ID,
			Requested:   qty,
			Available:   item.Quantity,
		}
	}

	item.Quantity -= qty
	if err := tx.SaveStockItem(ctx, item); err != nil {
		return err
	}

	return tx.AppendMovement(ctx, &models.StockMovement{
		StockItemID:   item.ID,
		Delta:         -qty,
		Resulting:     item.Quantity,
		Reason:        entry.Reason,
		ReferenceKind: entry.ReferenceKind,
		ReferenceID:   entry.ReferenceID,
		Notes:         entry.Notes,
	})
}

// Increment restores or restocks quantity. It cannot fail a bounds check but
// still appends its audit entry inside the caller's transaction.
func Increment(ctx context.Context, tx Tx, item *models.StockItem, qty int32, entry Entry) error {
	item.Quantity += qty
	if err := tx.SaveStockItem(ctx, item); err != nil {
		return err
	}

	return tx.AppendMovement(ctx, &models.StockMovement{
		StockItemID:   item.ID,
		Delta:         qty,
		Resulting:     item.Quantity,
		Reason:        entry.Reason,
		ReferenceKind: entry.ReferenceKind,
		ReferenceID:   entry.ReferenceID,
		Notes:         entry.Notes,
	})
}
