package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when a sale or reservation carries no items.
	ErrEmptyCart = errors.New("at least one item is required")

	// ErrLockNotAvailable means a stock row was locked by another request.
	// It is the only retryable error in the taxonomy.
	ErrLockNotAvailable = errors.New("stock row is locked by another operation")
)

// InsufficientStockError names the item that failed and the shortfall so the
// caller can report exactly which line blocked the operation.
type InsufficientStockError struct {
	StockItemID int64
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.StockItemID, e.Requested, e.Available)
}

// InvalidItemError marks a line referencing an unknown or disabled item.
type InvalidItemError struct {
	StockItemID int64
	Reason      string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %d: %s", e.StockItemID, e.Reason)
}

// InvalidTransitionError rejects a state-machine move that is not allowed
// from the record's current status.
type InvalidTransitionError struct {
	Entity string
	ID     int64
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %d: cannot transition from %s to %s", e.Entity, e.ID, e.From, e.To)
}

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
