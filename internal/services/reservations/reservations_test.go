package reservations_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/reservations"
	"boutique-system/internal/stock"
	"boutique-system/internal/stock/memstore"
)

type noopUpserter struct{}

func (noopUpserter) Upsert(ctx context.Context, email, name string) (int64, error) {
	return 1, nil
}

func newManager() (*reservations.Manager, *memstore.Store) {
	store := memstore.New()
	return reservations.NewManager(store, noopUpserter{}, zap.NewNop()), store
}

func addItem(store *memstore.Store, price string, qty int32) *models.StockItem {
	return store.AddStockItem(&models.StockItem{
		SKU:       "DRESS-S-NVY",
		Name:      "Wrap Dress",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		IsActive:  true,
	})
}

func createReservation(t *testing.T, m *reservations.Manager, item *models.StockItem, qty int32, expiresAt time.Time) *models.Reservation {
	t.Helper()
	r, err := m.Create(context.Background(), reservations.CreateInput{
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Items:         []reservations.ItemInput{{StockItemID: item.ID, Quantity: qty}},
		PaymentMethod: "card",
		ExpiresAt:     expiresAt,
	})
	require.NoError(t, err)
	return r
}

func TestCreateHoldsStockAndCancelRestoresIt(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 5)

	r := createReservation(t, m, item, 5, time.Now().Add(48*time.Hour))

	held, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(0), held.Quantity, "the hold is a real decrement")

	require.NoError(t, m.Cancel(ctx, r.ID))

	restored, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(5), restored.Quantity)

	after, err := store.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, after.Status)

	movements, _ := store.ListMovements(ctx, item.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementReservationHold, movements[0].Reason)
	assert.Equal(t, models.MovementReservationRelease, movements[1].Reason)
}

func TestCreateRollsBackWhenStockIsShort(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 2)

	_, err := m.Create(ctx, reservations.CreateInput{
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Items:         []reservations.ItemInput{{StockItemID: item.ID, Quantity: 3}},
		ExpiresAt:     time.Now().Add(time.Hour),
	})

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(2), after.Quantity)

	// The pending record must not survive the rollback.
	reservationList, listErr := store.ListReservations(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, reservationList)
}

func TestCompleteIsIdempotentAndNeverDoubleDeducts(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 5)

	r := createReservation(t, m, item, 2, time.Now().Add(time.Hour))

	held, _ := store.GetStockItem(ctx, item.ID)
	require.Equal(t, int32(3), held.Quantity)

	saleID, err := m.Complete(ctx, r.ID)
	require.NoError(t, err)
	require.NotZero(t, saleID)

	// Completion converts the hold, it does not deduct again.
	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(3), after.Quantity)

	sale, err := store.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("178.00")), "total %s", sale.Total)

	againID, err := m.Complete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, saleID, againID)

	unchanged, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(3), unchanged.Quantity)
}

func TestCompleteRejectsReleasedReservations(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 5)

	r := createReservation(t, m, item, 1, time.Now().Add(time.Hour))
	require.NoError(t, m.Cancel(ctx, r.ID))

	_, err := m.Complete(ctx, r.ID)
	var transition *stock.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestConfirmOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 5)

	r := createReservation(t, m, item, 1, time.Now().Add(time.Hour))

	require.NoError(t, m.Confirm(ctx, r.ID))

	after, _ := store.GetReservation(ctx, r.ID)
	assert.Equal(t, models.ReservationConfirmed, after.Status)

	err := m.Confirm(ctx, r.ID)
	var transition *stock.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestSweepExpiredReleasesDueHolds(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()
	item := addItem(store, "89.00", 5)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	due := createReservation(t, m, item, 2, past)
	live := createReservation(t, m, item, 1, future)

	// Expiry is advisory until the sweep runs.
	views, err := m.List(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		if v.ID == due.ID {
			assert.True(t, v.ExpiryDue)
			assert.Equal(t, models.ReservationPending, v.Status)
		} else {
			assert.False(t, v.ExpiryDue)
		}
	}

	count, err := m.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, _ := store.GetReservation(ctx, due.ID)
	assert.Equal(t, models.ReservationExpired, expired.Status)

	untouched, _ := store.GetReservation(ctx, live.ID)
	assert.Equal(t, models.ReservationPending, untouched.Status)

	after, _ := store.GetStockItem(ctx, item.ID)
	assert.Equal(t, int32(4), after.Quantity, "only the due hold is released")
}
