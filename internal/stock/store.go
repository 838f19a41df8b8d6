package stock

import (
	"context"
	"time"

	"boutique-system/internal/database/models"
)

// Store is the persistence boundary for the stock engine. Every multi-step
// mutation runs inside WithinTx; the read methods are for listing and lookup
// outside a unit of work.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetStockItem(ctx context.Context, id int64) (*models.StockItem, error)
	ListMovements(ctx context.Context, stockItemID int64) ([]models.StockMovement, error)
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	ListDueReservationIDs(ctx context.Context, now time.Time) ([]int64, error)
	GetExchangeReturn(ctx context.Context, id int64) (*models.ExchangeReturn, error)
	GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
}

// Tx is one atomic unit of work. StockItemsForUpdate must lock rows in
// ascending id order so two transactions touching the same items cannot
// deadlock, and must fail fast with ErrLockNotAvailable rather than wait
// indefinitely on a contended row.
type Tx interface {
	StockItemsForUpdate(ctx context.Context, ids []int64) (map[int64]*models.StockItem, error)
	SaveStockItem(ctx context.Context, item *models.StockItem) error
	AppendMovement(ctx context.Context, mv *models.StockMovement) error

	CreateSale(ctx context.Context, sale *models.Sale) error
	SaleForUpdate(ctx context.Context, id int64) (*models.Sale, error)
	SaveSale(ctx context.Context, sale *models.Sale) error

	CreateReservation(ctx context.Context, r *models.Reservation) error
	ReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error)
	SaveReservation(ctx context.Context, r *models.Reservation) error

	CreateExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error
	ExchangeReturnForUpdate(ctx context.Context, id int64) (*models.ExchangeReturn, error)
	SaveExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error

	CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	PurchaseOrderForUpdate(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	SavePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
}
