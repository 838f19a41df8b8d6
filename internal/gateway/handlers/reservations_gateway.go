package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"boutique-system/internal/services/reservations"
)

type ReservationsHTTPHandler struct {
	reservations *reservations.Manager
}

func NewReservationsHTTPHandler(manager *reservations.Manager) *ReservationsHTTPHandler {
	return &ReservationsHTTPHandler{reservations: manager}
}

type reservationLineRequest struct {
	StockItemID int64 `json:"stock_item_id" binding:"required"`
	Quantity    int32 `json:"quantity" binding:"required"`
}

type createReservationRequest struct {
	CustomerName  string                   `json:"customer_name" binding:"required"`
	CustomerEmail string                   `json:"customer_email" binding:"required"`
	Items         []reservationLineRequest `json:"items" binding:"required"`
	DepositAmount string                   `json:"deposit_amount"`
	PaymentMethod string                   `json:"payment_method"`
	ExpiresAt     time.Time                `json:"expires_at" binding:"required"`
}

func (s *ReservationsHTTPHandler) Create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	deposit := decimal.Zero
	if req.DepositAmount != "" {
		var err error
		deposit, err = decimal.NewFromString(req.DepositAmount)
		if err != nil {
			fail(c, http.StatusBadRequest, "deposit_amount must be a decimal amount")
			return
		}
	}

	in := reservations.CreateInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		DepositAmount: deposit,
		PaymentMethod: req.PaymentMethod,
		ExpiresAt:     req.ExpiresAt,
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, reservations.ItemInput{
			StockItemID: line.StockItemID,
			Quantity:    line.Quantity,
		})
	}

	reservation, err := s.reservations.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, reservation)
}

func (s *ReservationsHTTPHandler) Confirm(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	if err := s.reservations.Confirm(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	reservation, err := s.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, reservation)
}

func (s *ReservationsHTTPHandler) Complete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	saleID, err := s.reservations.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, gin.H{"sale_id": saleID})
}

func (s *ReservationsHTTPHandler) Cancel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	if err := s.reservations.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	reservation, err := s.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, reservation)
}

func (s *ReservationsHTTPHandler) SweepExpired(c *gin.Context) {
	count, err := s.reservations.SweepExpired(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, gin.H{"expired_count": count})
}

func (s *ReservationsHTTPHandler) List(c *gin.Context) {
	views, err := s.reservations.List(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, views)
}

func (s *ReservationsHTTPHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	reservation, err := s.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, reservation)
}
