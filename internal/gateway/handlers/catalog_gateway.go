package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boutique-system/internal/services/catalog"
)

type CatalogHTTPHandler struct {
	catalog *catalog.Service
}

func NewCatalogHTTPHandler(catalogService *catalog.Service) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: catalogService}
}

type createItemRequest struct {
	SKU        string `json:"sku" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	CategoryID *int32 `json:"category_id"`
	Quantity   int32  `json:"quantity"`
	MinStock   int32  `json:"min_stock"`
	UnitPrice  string `json:"unit_price"`
	UnitCost   string `json:"unit_cost"`
}

func (s *CatalogHTTPHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := s.catalog.CreateItem(c.Request.Context(), catalog.CreateItemInput{
		SKU:        req.SKU,
		Name:       req.Name,
		Size:       req.Size,
		Color:      req.Color,
		CategoryID: req.CategoryID,
		Quantity:   req.Quantity,
		MinStock:   req.MinStock,
		UnitPrice:  req.UnitPrice,
		UnitCost:   req.UnitCost,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, item)
}

type updateItemRequest struct {
	Name       *string `json:"name"`
	Size       *string `json:"size"`
	Color      *string `json:"color"`
	CategoryID *int32  `json:"category_id"`
	MinStock   *int32  `json:"min_stock"`
	UnitPrice  *string `json:"unit_price"`
	IsActive   *bool   `json:"is_active"`
}

func (s *CatalogHTTPHandler) UpdateItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid stock item ID")
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := s.catalog.UpdateItem(c.Request.Context(), id, catalog.UpdateItemInput{
		Name:       req.Name,
		Size:       req.Size,
		Color:      req.Color,
		CategoryID: req.CategoryID,
		MinStock:   req.MinStock,
		UnitPrice:  req.UnitPrice,
		IsActive:   req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, item)
}

func (s *CatalogHTTPHandler) GetItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid stock item ID")
		return
	}

	item, err := s.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, item)
}

func (s *CatalogHTTPHandler) ListItems(c *gin.Context) {
	page, err := s.catalog.ListItems(c.Request.Context(), catalog.ListItemsQuery{
		IsActive:   parseBoolQuery(c, "is_active"),
		CategoryID: parseIntQuery(c, "category_id"),
		SearchTerm: c.Query("search"),
		PageSize:   parsePageSize(c),
		PageToken:  c.Query("page_token"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Items,
		"pagination": gin.H{
			"next_page_token": page.NextPageToken,
			"total_count":     page.TotalCount,
		},
	})
}

func (s *CatalogHTTPHandler) ListLowStock(c *gin.Context) {
	items, err := s.catalog.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, items)
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *CatalogHTTPHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category, err := s.catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, category)
}

func (s *CatalogHTTPHandler) ListCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, categories)
}

// ListItemMovements is the per-item view of the audit trail.
func (s *CatalogHTTPHandler) ListItemMovements(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid stock item ID")
		return
	}

	if _, err := s.catalog.GetItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	page, err := s.catalog.ListMovements(c.Request.Context(), catalog.ListMovementsQuery{
		StockItemID: &id,
		PageSize:    parsePageSize(c),
		PageToken:   c.Query("page_token"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, page.Movements)
}

func (s *CatalogHTTPHandler) ListMovements(c *gin.Context) {
	page, err := s.catalog.ListMovements(c.Request.Context(), catalog.ListMovementsQuery{
		StockItemID: parseInt64Query(c, "stock_item_id"),
		Reason:      c.Query("reason"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		PageSize:    parsePageSize(c),
		PageToken:   c.Query("page_token"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Movements,
		"pagination": gin.H{
			"next_page_token": page.NextPageToken,
			"total_count":     page.TotalCount,
		},
	})
}
