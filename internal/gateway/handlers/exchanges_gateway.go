package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boutique-system/internal/database/models"
	"boutique-system/internal/services/exchanges"
)

type ExchangesHTTPHandler struct {
	exchanges *exchanges.Processor
}

func NewExchangesHTTPHandler(processor *exchanges.Processor) *ExchangesHTTPHandler {
	return &ExchangesHTTPHandler{exchanges: processor}
}

type exchangeLineRequest struct {
	StockItemID    int64  `json:"stock_item_id" binding:"required"`
	Quantity       int32  `json:"quantity" binding:"required"`
	NewStockItemID *int64 `json:"new_stock_item_id"`
	NewQuantity    *int32 `json:"new_quantity"`
}

type createExchangeRequest struct {
	SaleID int64                 `json:"sale_id" binding:"required"`
	Kind   string                `json:"kind" binding:"required"`
	Items  []exchangeLineRequest `json:"items" binding:"required"`
}

func (s *ExchangesHTTPHandler) Create(c *gin.Context) {
	var req createExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in := exchanges.CreateInput{
		SaleID: req.SaleID,
		Kind:   models.ExchangeKind(req.Kind),
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, exchanges.ItemInput{
			StockItemID:    line.StockItemID,
			Quantity:       line.Quantity,
			NewStockItemID: line.NewStockItemID,
			NewQuantity:    line.NewQuantity,
		})
	}

	record, err := s.exchanges.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, record)
}

type updateExchangeStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"approval_notes"`
}

func (s *ExchangesHTTPHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid exchange/return ID")
		return
	}

	var req updateExchangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := s.exchanges.UpdateStatus(c.Request.Context(), id, models.ExchangeStatus(req.Status), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, record)
}

func (s *ExchangesHTTPHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid exchange/return ID")
		return
	}

	record, err := s.exchanges.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, record)
}
