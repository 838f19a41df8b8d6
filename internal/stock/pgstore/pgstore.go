// Package pgstore is the postgres stock.Store. Row locks are taken with
// FOR UPDATE NOWAIT in ascending id order; a lock conflict is surfaced as
// stock.ErrLockNotAvailable so the caller can report a retryable failure
// instead of queueing behind another seller.
package pgstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
)

const lockNotAvailable = "55P03"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx stock.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgTx{db: tx})
	})
}

func (s *Store) GetStockItem(ctx context.Context, id int64) (*models.StockItem, error) {
	var item models.StockItem
	err := s.db.WithContext(ctx).Preload("Category").First(&item, id).Error
	if err != nil {
		return nil, notFound(err, "stock item", id)
	}
	return &item, nil
}

func (s *Store) ListMovements(ctx context.Context, stockItemID int64) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := s.db.WithContext(ctx).
		Where("stock_item_id = ?", stockItemID).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}

func (s *Store) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).Preload("Items").First(&sale, id).Error
	if err != nil {
		return nil, notFound(err, "sale", id)
	}
	return &sale, nil
}

func (s *Store) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).Preload("Items").First(&r, id).Error
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	return &r, nil
}

func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.WithContext(ctx).Preload("Items").Order("id ASC").Find(&out).Error
	return out, err
}

func (s *Store) ListDueReservationIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status IN ? AND expires_at < ?",
			[]models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed}, now).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) GetExchangeReturn(ctx context.Context, id int64) (*models.ExchangeReturn, error) {
	var er models.ExchangeReturn
	err := s.db.WithContext(ctx).Preload("Items").First(&er, id).Error
	if err != nil {
		return nil, notFound(err, "exchange/return", id)
	}
	return &er, nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := s.db.WithContext(ctx).Preload("Items").First(&po, id).Error
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}
	return &po, nil
}

// --- transaction ---

type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) StockItemsForUpdate(ctx context.Context, ids []int64) (map[int64]*models.StockItem, error) {
	seen := make(map[int64]struct{}, len(ids))
	ordered := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var items []models.StockItem
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("id IN ?", ordered).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, mapLockError(err)
	}

	out := make(map[int64]*models.StockItem, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (t *pgTx) SaveStockItem(ctx context.Context, item *models.StockItem) error {
	return t.db.WithContext(ctx).Save(item).Error
}

func (t *pgTx) AppendMovement(ctx context.Context, mv *models.StockMovement) error {
	return t.db.WithContext(ctx).Create(mv).Error
}

func (t *pgTx) CreateSale(ctx context.Context, sale *models.Sale) error {
	return t.db.WithContext(ctx).Create(sale).Error
}

func (t *pgTx) SaleForUpdate(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&sale, id).Error
	if err != nil {
		if e := mapLockError(err); errors.Is(e, stock.ErrLockNotAvailable) {
			return nil, e
		}
		return nil, notFound(err, "sale", id)
	}
	if err := t.db.WithContext(ctx).Where("sale_id = ?", id).Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (t *pgTx) SaveSale(ctx context.Context, sale *models.Sale) error {
	return t.db.WithContext(ctx).Omit("Items").Save(sale).Error
}

func (t *pgTx) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return t.db.WithContext(ctx).Create(r).Error
}

func (t *pgTx) ReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&r, id).Error
	if err != nil {
		if e := mapLockError(err); errors.Is(e, stock.ErrLockNotAvailable) {
			return nil, e
		}
		return nil, notFound(err, "reservation", id)
	}
	if err := t.db.WithContext(ctx).Where("reservation_id = ?", id).Find(&r.Items).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *pgTx) SaveReservation(ctx context.Context, r *models.Reservation) error {
	return t.db.WithContext(ctx).Omit("Items").Save(r).Error
}

func (t *pgTx) CreateExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error {
	return t.db.WithContext(ctx).Create(er).Error
}

func (t *pgTx) ExchangeReturnForUpdate(ctx context.Context, id int64) (*models.ExchangeReturn, error) {
	var er models.ExchangeReturn
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&er, id).Error
	if err != nil {
		if e := mapLockError(err); errors.Is(e, stock.ErrLockNotAvailable) {
			return nil, e
		}
		return nil, notFound(err, "exchange/return", id)
	}
	if err := t.db.WithContext(ctx).Where("exchange_return_id = ?", id).Find(&er.Items).Error; err != nil {
		return nil, err
	}
	return &er, nil
}

func (t *pgTx) SaveExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error {
	return t.db.WithContext(ctx).Omit("Items").Save(er).Error
}

func (t *pgTx) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return t.db.WithContext(ctx).Create(po).Error
}

func (t *pgTx) PurchaseOrderForUpdate(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&po, id).Error
	if err != nil {
		if e := mapLockError(err); errors.Is(e, stock.ErrLockNotAvailable) {
			return nil, e
		}
		return nil, notFound(err, "purchase order", id)
	}
	if err := t.db.WithContext(ctx).Where("purchase_order_id = ?", id).Find(&po.Items).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (t *pgTx) SavePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return t.db.WithContext(ctx).Omit("Items").Save(po).Error
}

// --- error mapping ---

func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
		return stock.ErrLockNotAvailable
	}
	return err
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &stock.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
