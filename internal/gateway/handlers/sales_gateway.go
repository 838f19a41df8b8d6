package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"boutique-system/internal/services/sales"
)

type SalesHTTPHandler struct {
	sales *sales.Processor
}

func NewSalesHTTPHandler(salesProcessor *sales.Processor) *SalesHTTPHandler {
	return &SalesHTTPHandler{sales: salesProcessor}
}

type saleLineRequest struct {
	StockItemID int64 `json:"stock_item_id" binding:"required"`
	Quantity    int32 `json:"quantity" binding:"required"`
}

type commitSaleRequest struct {
	Items           []saleLineRequest `json:"items" binding:"required"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerName    string            `json:"customer_name"`
	PaymentMethod   string            `json:"payment_method" binding:"required"`
	DiscountPercent string            `json:"discount_percent"`
	DiscountAmount  string            `json:"discount_amount"`
}

func (s *SalesHTTPHandler) CommitSale(c *gin.Context) {
	var req commitSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in := sales.CommitSaleInput{
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, sales.ItemInput{
			StockItemID: line.StockItemID,
			Quantity:    line.Quantity,
		})
	}

	var err error
	if in.DiscountPercent, err = parseOptionalDecimal(req.DiscountPercent); err != nil {
		fail(c, http.StatusBadRequest, "discount_percent must be a decimal amount")
		return
	}
	if in.DiscountAmount, err = parseOptionalDecimal(req.DiscountAmount); err != nil {
		fail(c, http.StatusBadRequest, "discount_amount must be a decimal amount")
		return
	}

	receipt, err := s.sales.CommitSale(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, receipt)
}

func (s *SalesHTTPHandler) CancelSale(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid sale ID")
		return
	}

	sale, err := s.sales.CancelSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, sale)
}

func (s *SalesHTTPHandler) GetSale(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid sale ID")
		return
	}

	sale, err := s.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, sale)
}

func parseOptionalDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
