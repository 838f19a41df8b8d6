package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"boutique-system/internal/services/purchasing"
)

type PurchasingHTTPHandler struct {
	purchasing *purchasing.Processor
}

func NewPurchasingHTTPHandler(processor *purchasing.Processor) *PurchasingHTTPHandler {
	return &PurchasingHTTPHandler{purchasing: processor}
}

type purchaseLineRequest struct {
	StockItemID int64  `json:"stock_item_id" binding:"required"`
	Quantity    int32  `json:"quantity" binding:"required"`
	UnitCost    string `json:"unit_cost" binding:"required"`
}

type createPurchaseOrderRequest struct {
	SupplierName string                `json:"supplier_name" binding:"required"`
	Items        []purchaseLineRequest `json:"items" binding:"required"`
}

func (s *PurchasingHTTPHandler) CreateOrder(c *gin.Context) {
	var req createPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in := purchasing.CreateInput{SupplierName: req.SupplierName}
	for _, line := range req.Items {
		unitCost, err := decimal.NewFromString(line.UnitCost)
		if err != nil {
			fail(c, http.StatusBadRequest, "unit_cost must be a decimal amount")
			return
		}
		in.Items = append(in.Items, purchasing.ItemInput{
			StockItemID: line.StockItemID,
			Quantity:    line.Quantity,
			UnitCost:    unitCost,
		})
	}

	order, err := s.purchasing.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, order)
}

func (s *PurchasingHTTPHandler) ReceiveOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	order, err := s.purchasing.ReceiveOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, order)
}

func (s *PurchasingHTTPHandler) CancelOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	order, err := s.purchasing.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, order)
}

func (s *PurchasingHTTPHandler) GetOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	order, err := s.purchasing.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, order)
}
