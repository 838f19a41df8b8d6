// Package memstore is an in-memory stock.Store used by unit tests and local
// development. Transactions run against a deep copy of the state under a
// single mutex, so a failed unit of work leaves nothing behind and concurrent
// callers serialize the same way row locks serialize them in postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
)

type state struct {
	stockItems     map[int64]*models.StockItem
	movements      []models.StockMovement
	sales          map[int64]*models.Sale
	reservations   map[int64]*models.Reservation
	exchanges      map[int64]*models.ExchangeReturn
	purchaseOrders map[int64]*models.PurchaseOrder

	nextStockItem int64
	nextMovement  int64
	nextSale      int64
	nextLine      int64
	nextRes       int64
	nextExchange  int64
	nextOrder     int64
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		stockItems:     make(map[int64]*models.StockItem),
		sales:          make(map[int64]*models.Sale),
		reservations:   make(map[int64]*models.Reservation),
		exchanges:      make(map[int64]*models.ExchangeReturn),
		purchaseOrders: make(map[int64]*models.PurchaseOrder),
	}}
}

// AddStockItem seeds an item directly, bypassing the ledger. Test setup only.
func (s *Store) AddStockItem(item *models.StockItem) *models.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextStockItem++
	item.ID = s.st.nextStockItem
	s.st.stockItems[item.ID] = copyStockItem(item)
	return item
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx stock.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	scratch := s.st.clone()
	if err := fn(&memTx{st: scratch}); err != nil {
		return err
	}
	s.st = scratch
	return nil
}

func (s *Store) GetStockItem(ctx context.Context, id int64) (*models.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.st.stockItems[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "stock item", ID: id}
	}
	return copyStockItem(item), nil
}

func (s *Store) ListMovements(ctx context.Context, stockItemID int64) ([]models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StockMovement
	for _, mv := range s.st.movements {
		if mv.StockItemID == stockItemID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.st.sales[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "sale", ID: id}
	}
	return copySale(sale), nil
}

func (s *Store) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reservations[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "reservation", ID: id}
	}
	return copyReservation(r), nil
}

func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reservation, 0, len(s.st.reservations))
	for _, r := range s.st.reservations {
		out = append(out, *copyReservation(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListDueReservationIDs(ctx context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, r := range s.st.reservations {
		if r.Status.Active() && r.ExpiresAt.Before(now) {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GetExchangeReturn(ctx context.Context, id int64) (*models.ExchangeReturn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	er, ok := s.st.exchanges[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "exchange/return", ID: id}
	}
	return copyExchange(er), nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.st.purchaseOrders[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "purchase order", ID: id}
	}
	return copyPurchaseOrder(po), nil
}

// --- transaction ---

type memTx struct {
	st *state
}

func (t *memTx) StockItemsForUpdate(ctx context.Context, ids []int64) (map[int64]*models.StockItem, error) {
	out := make(map[int64]*models.StockItem, len(ids))
	for _, id := range ids {
		if item, ok := t.st.stockItems[id]; ok {
			out[id] = copyStockItem(item)
		}
	}
	return out, nil
}

func (t *memTx) SaveStockItem(ctx context.Context, item *models.StockItem) error {
	if _, ok := t.st.stockItems[item.ID]; !ok {
		return &stock.NotFoundError{Entity: "stock item", ID: item.ID}
	}
	item.UpdatedAt = time.Now()
	t.st.stockItems[item.ID] = copyStockItem(item)
	return nil
}

func (t *memTx) AppendMovement(ctx context.Context, mv *models.StockMovement) error {
	t.st.nextMovement++
	mv.ID = t.st.nextMovement
	mv.CreatedAt = time.Now()
	t.st.movements = append(t.st.movements, *mv)
	return nil
}

func (t *memTx) CreateSale(ctx context.Context, sale *models.Sale) error {
	t.st.nextSale++
	sale.ID = t.st.nextSale
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	for i := range sale.Items {
		t.st.nextLine++
		sale.Items[i].ID = t.st.nextLine
		sale.Items[i].SaleID = sale.ID
	}
	t.st.sales[sale.ID] = copySale(sale)
	return nil
}

func (t *memTx) SaleForUpdate(ctx context.Context, id int64) (*models.Sale, error) {
	sale, ok := t.st.sales[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "sale", ID: id}
	}
	return copySale(sale), nil
}

func (t *memTx) SaveSale(ctx context.Context, sale *models.Sale) error {
	if _, ok := t.st.sales[sale.ID]; !ok {
		return &stock.NotFoundError{Entity: "sale", ID: sale.ID}
	}
	sale.UpdatedAt = time.Now()
	t.st.sales[sale.ID] = copySale(sale)
	return nil
}

func (t *memTx) CreateReservation(ctx context.Context, r *models.Reservation) error {
	t.st.nextRes++
	r.ID = t.st.nextRes
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	for i := range r.Items {
		t.st.nextLine++
		r.Items[i].ID = t.st.nextLine
		r.Items[i].ReservationID = r.ID
	}
	t.st.reservations[r.ID] = copyReservation(r)
	return nil
}

func (t *memTx) ReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "reservation", ID: id}
	}
	return copyReservation(r), nil
}

func (t *memTx) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if _, ok := t.st.reservations[r.ID]; !ok {
		return &stock.NotFoundError{Entity: "reservation", ID: r.ID}
	}
	r.UpdatedAt = time.Now()
	t.st.reservations[r.ID] = copyReservation(r)
	return nil
}

func (t *memTx) CreateExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error {
	t.st.nextExchange++
	er.ID = t.st.nextExchange
	er.CreatedAt = time.Now()
	er.UpdatedAt = er.CreatedAt
	for i := range er.Items {
		t.st.nextLine++
		er.Items[i].ID = t.st.nextLine
		er.Items[i].ExchangeReturnID = er.ID
	}
	t.st.exchanges[er.ID] = copyExchange(er)
	return nil
}

func (t *memTx) ExchangeReturnForUpdate(ctx context.Context, id int64) (*models.ExchangeReturn, error) {
	er, ok := t.st.exchanges[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "exchange/return", ID: id}
	}
	return copyExchange(er), nil
}

func (t *memTx) SaveExchangeReturn(ctx context.Context, er *models.ExchangeReturn) error {
	if _, ok := t.st.exchanges[er.ID]; !ok {
		return &stock.NotFoundError{Entity: "exchange/return", ID: er.ID}
	}
	er.UpdatedAt = time.Now()
	t.st.exchanges[er.ID] = copyExchange(er)
	return nil
}

func (t *memTx) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	t.st.nextOrder++
	po.ID = t.st.nextOrder
	po.CreatedAt = time.Now()
	po.UpdatedAt = po.CreatedAt
	for i := range po.Items {
		t.st.nextLine++
		po.Items[i].ID = t.st.nextLine
		po.Items[i].PurchaseOrderID = po.ID
	}
	t.st.purchaseOrders[po.ID] = copyPurchaseOrder(po)
	return nil
}

func (t *memTx) PurchaseOrderForUpdate(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	po, ok := t.st.purchaseOrders[id]
	if !ok {
		return nil, &stock.NotFoundError{Entity: "purchase order", ID: id}
	}
	return copyPurchaseOrder(po), nil
}

func (t *memTx) SavePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	if _, ok := t.st.purchaseOrders[po.ID]; !ok {
		return &stock.NotFoundError{Entity: "purchase order", ID: po.ID}
	}
	po.UpdatedAt = time.Now()
	t.st.purchaseOrders[po.ID] = copyPurchaseOrder(po)
	return nil
}

// --- copying ---

func (st *state) clone() *state {
	c := &state{
		stockItems:     make(map[int64]*models.StockItem, len(st.stockItems)),
		movements:      append([]models.StockMovement(nil), st.movements...),
		sales:          make(map[int64]*models.Sale, len(st.sales)),
		reservations:   make(map[int64]*models.Reservation, len(st.reservations)),
		exchanges:      make(map[int64]*models.ExchangeReturn, len(st.exchanges)),
		purchaseOrders: make(map[int64]*models.PurchaseOrder, len(st.purchaseOrders)),
		nextStockItem:  st.nextStockItem,
		nextMovement:   st.nextMovement,
		nextSale:       st.nextSale,
		nextLine:       st.nextLine,
		nextRes:        st.nextRes,
		nextExchange:   st.nextExchange,
		nextOrder:      st.nextOrder,
	}
	for id, v := range st.stockItems {
		c.stockItems[id] = copyStockItem(v)
	}
	for id, v := range st.sales {
		c.sales[id] = copySale(v)
	}
	for id, v := range st.reservations {
		c.reservations[id] = copyReservation(v)
	}
	for id, v := range st.exchanges {
		c.exchanges[id] = copyExchange(v)
	}
	for id, v := range st.purchaseOrders {
		c.purchaseOrders[id] = copyPurchaseOrder(v)
	}
	return c
}

func copyStockItem(v *models.StockItem) *models.StockItem {
	c := *v
	c.Category = nil
	return &c
}

func copySale(v *models.Sale) *models.Sale {
	c := *v
	c.Items = append([]models.SaleItem(nil), v.Items...)
	for i := range c.Items {
		c.Items[i].StockItem = nil
	}
	c.Customer = nil
	return &c
}

func copyReservation(v *models.Reservation) *models.Reservation {
	c := *v
	c.Items = append([]models.ReservationItem(nil), v.Items...)
	return &c
}

func copyExchange(v *models.ExchangeReturn) *models.ExchangeReturn {
	c := *v
	c.Items = append([]models.ExchangeReturnItem(nil), v.Items...)
	c.Sale = nil
	return &c
}

func copyPurchaseOrder(v *models.PurchaseOrder) *models.PurchaseOrder {
	c := *v
	c.Items = append([]models.PurchaseOrderItem(nil), v.Items...)
	return &c
}
