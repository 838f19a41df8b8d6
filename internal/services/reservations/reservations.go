// Package reservations manages soft holds on stock. A hold is a real
// decrement taken at creation time, so a reserved unit can never be
// double-sold; releasing the hold puts the quantity back through the ledger.
package reservations

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/customers"
	"boutique-system/internal/stock"
)

type Manager struct {
	store     stock.Store
	customers customers.Upserter
	logger    *zap.Logger
}

func NewManager(store stock.Store, upserter customers.Upserter, logger *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		customers: upserter,
		logger:    logger,
	}
}

type ItemInput struct {
	StockItemID int64
	Quantity    int32
}

type CreateInput struct {
	CustomerName  string
	CustomerEmail string
	Items         []ItemInput
	DepositAmount decimal.Decimal
	PaymentMethod string
	ExpiresAt     time.Time
}

// View is a reservation plus its read-time expiry eligibility. Expiration is
// advisory: nothing transitions until a sweep or cancel call executes it.
type View struct {
	models.Reservation
	ExpiryDue bool
}

func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Reservation, error) {
	if len(in.Items) == 0 {
		return nil, stock.ErrEmptyCart
	}

	quantities := make(map[int64]int32, len(in.Items))
	var ids []int64
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &stock.InvalidItemError{
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

	reservation := &models.Reservation{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		DepositAmount: in.DepositAmount,
		PaymentMethod: in.PaymentMethod,
		ExpiresAt:     in.ExpiresAt,
		Status:        models.ReservationPending,
	}
	for _, id := range ids {
		reservation.Items = append(reservation.Items, models.ReservationItem{
			StockItemID: id,
			Quantity:    quantities[id],
		})
	}

	err := m.store.WithinTx(ctx, func(tx stock.Tx) error {
		if err := tx.CreateReservation(ctx, reservation); err != nil {
			return err
		}

		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, ok := items[id]
			if !ok {
				return &stock.InvalidItemError{StockItemID: id, Reason: "unknown stock item"}
			}
			if !item.IsActive {
				return &stock.InvalidItemError{StockItemID: id, Reason: "item is disabled"}
			}
			entry := stock.Entry{
				Reason:        models.MovementReservationHold,
				ReferenceKind: models.RefReservation,
				ReferenceID:   strconv.FormatInt(reservation.ID, 10),
			}
			if err := stock.TryDecrement(ctx, tx, item, quantities[id], entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("reservation created",
		zap.Int64("reservation_id", reservation.ID),
		zap.Time("expires_at", reservation.ExpiresAt))
	return reservation, nil
}

func (m *Manager) Confirm(ctx context.Context, id int64) error {
	return m.store.WithinTx(ctx, func(tx stock.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReservationPending {
			return &stock.InvalidTransitionError{
				Entity: "reservation", ID: id,
				From: string(r.Status), To: string(models.ReservationConfirmed),
			}
		}
		r.Status = models.ReservationConfirmed
		return tx.SaveReservation(ctx, r)
	})
}

// Complete converts the reservation into a sale. The stock was already
// deducted when the hold was taken, so no ledger mutation happens here.
// Completing an already-completed reservation returns the original sale id.
func (m *Manager) Complete(ctx context.Context, id int64) (int64, error) {
	var saleID int64

	err := m.store.WithinTx(ctx, func(tx stock.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if r.Status == models.ReservationCompleted {
			if r.SaleID != nil {
				saleID = *r.SaleID
			}
			return nil
		}
		if !r.Status.Active() {
			return &stock.InvalidTransitionError{
				Entity: "reservation", ID: id,
				From: string(r.Status), To: string(models.ReservationCompleted),
			}
		}

		ids := make([]int64, 0, len(r.Items))
		for _, line := range r.Items {
			ids = append(ids, line.StockItemID)
		}
		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		sale := &models.Sale{
			ReceiptNumber: "R-" + uuid.NewString(),
			PaymentMethod: r.PaymentMethod,
			Status:        models.SaleCompleted,
		}
		subtotal := decimal.Zero
		for _, line := range r.Items {
			item, ok := items[line.StockItemID]
			if !ok {
				return &stock.NotFoundError{Entity: "stock item", ID: line.StockItemID}
			}
			lineTotal := item.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity))
			subtotal = subtotal.Add(lineTotal)
			sale.Items = append(sale.Items, models.SaleItem{
				StockItemID: line.StockItemID,
				Quantity:    line.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   lineTotal,
			})
		}
		sale.Subtotal = subtotal
		sale.DiscountAmount = decimal.Zero
		sale.Total = subtotal

		if err := tx.CreateSale(ctx, sale); err != nil {
			return err
		}

		r.Status = models.ReservationCompleted
		r.SaleID = &sale.ID
		saleID = sale.ID
		return tx.SaveReservation(ctx, r)
	})
	if err != nil {
		return 0, err
	}

	reservation, getErr := m.store.GetReservation(ctx, id)
	if getErr == nil && reservation.CustomerEmail != "" {
		if _, upsertErr := m.customers.Upsert(ctx, reservation.CustomerEmail, reservation.CustomerName); upsertErr != nil {
			m.logger.Warn("customer upsert failed after reservation completion",
				zap.Int64("reservation_id", id),
				zap.Error(upsertErr))
		}
	}

	return saleID, nil
}

func (m *Manager) Cancel(ctx context.Context, id int64) error {
	if err := m.release(ctx, id, models.ReservationCancelled); err != nil {
		return err
	}
	m.logger.Info("reservation cancelled", zap.Int64("reservation_id", id))
	return nil
}

// SweepExpired transitions every due reservation to expired, restoring held
// stock. It is the explicit trigger the system relies on instead of a
// background timer; expiry is otherwise only surfaced on reads.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := m.store.ListDueReservationIDs(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := m.release(ctx, id, models.ReservationExpired); err != nil {
			m.logger.Warn("failed to expire reservation",
				zap.Int64("reservation_id", id),
				zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

func (m *Manager) List(ctx context.Context, now time.Time) ([]View, error) {
	reservations, err := m.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(reservations))
	for _, r := range reservations {
		views = append(views, View{
			Reservation: r,
			ExpiryDue:   r.Status.Active() && r.ExpiresAt.Before(now),
		})
	}
	return views, nil
}

func (m *Manager) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return m.store.GetReservation(ctx, id)
}

func (m *Manager) release(ctx context.Context, id int64, to models.ReservationStatus) error {
	return m.store.WithinTx(ctx, func(tx stock.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.Active() {
			return &stock.InvalidTransitionError{
				Entity: "reservation", ID: id,
				From: string(r.Status), To: string(to),
			}
		}

		ids := make([]int64, 0, len(r.Items))
		for _, line := range r.Items {
			ids = append(ids, line.StockItemID)
		}
		items, err := tx.StockItemsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		for _, line := range r.Items {
			item, ok := items[line.StockItemID]
			if !ok {
				return &stock.NotFoundError{Entity: "stock item", ID: line.StockItemID}
			}
			entry := stock.Entry{
				Reason:        models.MovementReservationRelease,
				ReferenceKind: models.RefReservation,
				ReferenceID:   strconv.FormatInt(r.ID, 10),
			}
			if err := stock.Increment(ctx, tx, item, line.Quantity, entry); err != nil {
				return err
			}
		}

		r.Status = to
		return tx.SaveReservation(ctx, r)
	})
}
