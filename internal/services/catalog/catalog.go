// Package catalog manages stock items and categories. Reads go through a
// short-lived redis cache; every write invalidates the affected keys.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"boutique-system/internal/database/models"
	"boutique-system/internal/stock"
)

const (
	ITEM_CACHE_PREFIX    = "catalog:item:"
	ITEMS_CACHE_KEY      = "catalog:items"
	CATEGORIES_CACHE_KEY = "catalog:categories"
	LOW_STOCK_CACHE_KEY  = "catalog:low-stock"
	CACHE_TTL_SHORT      = 5 * time.Minute
	CACHE_TTL_MEDIUM     = 30 * time.Minute
)

type Service struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewService(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *Service {
	return &Service{db: db, redis: redisClient, logger: logger}
}

func (s *Service) invalidateItemCaches(ctx context.Context, itemID ...int64) {
	_ = s.redis.Del(ctx, ITEMS_CACHE_KEY, LOW_STOCK_CACHE_KEY)

	for _, id := range itemID {
		cacheKey := fmt.Sprintf("%s%d", ITEM_CACHE_PREFIX, id)
		_ = s.redis.Del(ctx, cacheKey)
	}
}

// -- Stock Items --

type CreateItemInput struct {
	SKU        string
	Name       string
	Size       string
	Color      string
	CategoryID *int32
	Quantity   int32
	MinStock   int32
	UnitPrice  string
	UnitCost   string
}

func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (*models.StockItem, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, &stock.InvalidItemError{Reason: "sku and name are required"}
	}
	if in.Quantity < 0 || in.MinStock < 0 {
		return nil, &stock.InvalidItemError{Reason: "quantity and min stock cannot be negative"}
	}

	item := models.StockItem{
		SKU:        in.SKU,
		Name:       in.Name,
		Size:       in.Size,
		Color:      in.Color,
		CategoryID: in.CategoryID,
		Quantity:   in.Quantity,
		MinStock:   in.MinStock,
		IsActive:   true,
	}
	var err error
	if item.UnitPrice, err = parseMoney(in.UnitPrice, "unit_price"); err != nil {
		return nil, err
	}
	if item.UnitCost, err = parseMoney(in.UnitCost, "unit_cost"); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	_ = s.redis.Del(ctx, ITEMS_CACHE_KEY, LOW_STOCK_CACHE_KEY)

	s.logger.Info("stock item created", zap.Int64("id", item.ID), zap.String("sku", item.SKU))
	return &item, nil
}

type UpdateItemInput struct {
	Name       *string
	Size       *string
	Color      *string
	CategoryID *int32
	MinStock   *int32
	UnitPrice  *string
	IsActive   *bool
}

// UpdateItem changes descriptive fields only. Quantity is owned by the
// ledger and never updated here.
func (s *Service) UpdateItem(ctx context.Context, id int64, in UpdateItemInput) (*models.StockItem, error) {
	var item models.StockItem

	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &stock.NotFoundError{Entity: "stock item", ID: id}
		}
		return nil, err
	}

	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Size != nil {
		item.Size = *in.Size
	}
	if in.Color != nil {
		item.Color = *in.Color
	}
	if in.CategoryID != nil {
		item.CategoryID = in.CategoryID
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, &stock.InvalidItemError{StockItemID: id, Reason: "min stock cannot be negative"}
		}
		item.MinStock = *in.MinStock
	}
	if in.UnitPrice != nil {
		price, err := parseMoney(*in.UnitPrice, "unit_price")
		if err != nil {
			return nil, err
		}
		item.UnitPrice = price
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, err
	}

	s.invalidateItemCaches(ctx, id)
	return &item, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*models.StockItem, error) {
	cacheKey := fmt.Sprintf("%s%d", ITEM_CACHE_PREFIX, id)
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var item models.StockItem
		if json.Unmarshal([]byte(cached), &item) == nil {
			return &item, nil
		}
	}

	var item models.StockItem
	if err := s.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &stock.NotFoundError{Entity: "stock item", ID: id}
		}
		return nil, err
	}

	if data, err := json.Marshal(item); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}
	return &item, nil
}

type ListItemsQuery struct {
	IsActive   *bool
	CategoryID *int32
	SearchTerm string
	PageSize   int
	PageToken  string
}

type ItemPage struct {
	Items         []models.StockItem
	TotalCount    int64
	NextPageToken string
}

func (s *Service) ListItems(ctx context.Context, q ListItemsQuery) (*ItemPage, error) {
	var items []models.StockItem
	var total int64

	query := s.db.WithContext(ctx).Model(&models.StockItem{}).Preload("Category")

	if q.IsActive != nil {
		query = query.Where("is_active = ?", *q.IsActive)
	}
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.SearchTerm != "" {
		searchTerm := "%" + q.SearchTerm + "%"
		query = query.Where(
			"sku ILIKE ? OR name ILIKE ? OR color ILIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	pageNumber := 1
	if q.PageToken != "" {
		if n, err := strconv.Atoi(q.PageToken); err == nil && n > 0 {
			pageNumber = n
		}
	}

	offset := (pageNumber - 1) * pageSize
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	nextPageToken := ""
	if int64(pageNumber*pageSize) < total {
		nextPageToken = strconv.Itoa(pageNumber + 1)
	}

	return &ItemPage{Items: items, TotalCount: total, NextPageToken: nextPageToken}, nil
}

// ListLowStock returns active items at or below their min stock threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]models.StockItem, error) {
	if cached, err := s.redis.Get(ctx, LOW_STOCK_CACHE_KEY).Result(); err == nil {
		var items []models.StockItem
		if json.Unmarshal([]byte(cached), &items) == nil {
			return items, nil
		}
	}

	var items []models.StockItem
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("quantity <= min_stock").
		Order("quantity ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		_ = s.redis.Set(ctx, LOW_STOCK_CACHE_KEY, data, CACHE_TTL_SHORT)
	}
	return items, nil
}

// -- Categories --

func (s *Service) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, &stock.InvalidItemError{Reason: "category name is required"}
	}

	category := models.Category{Name: name}
	if description != "" {
		category.Description = &description
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}

	_ = s.redis.Del(ctx, CATEGORIES_CACHE_KEY)
	return &category, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cached, err := s.redis.Get(ctx, CATEGORIES_CACHE_KEY).Result(); err == nil {
		var categories []models.Category
		if json.Unmarshal([]byte(cached), &categories) == nil {
			return categories, nil
		}
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(categories); err == nil {
		_ = s.redis.Set(ctx, CATEGORIES_CACHE_KEY, data, CACHE_TTL_MEDIUM)
	}
	return categories, nil
}

// -- Movements --

type ListMovementsQuery struct {
	StockItemID *int64
	Reason      string
	StartDate   string
	EndDate     string
	PageSize    int
	PageToken   string
}

type MovementPage struct {
	Movements     []models.StockMovement
	TotalCount    int64
	NextPageToken string
}

func (s *Service) ListMovements(ctx context.Context, q ListMovementsQuery) (*MovementPage, error) {
	var movements []models.StockMovement
	var total int64

	query := s.db.WithContext(ctx).Model(&models.StockMovement{})

	if q.StockItemID != nil {
		query = query.Where("stock_item_id = ?", *q.StockItemID)
	}
	if q.Reason != "" {
		query = query.Where("reason = ?", q.Reason)
	}
	if q.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", q.StartDate)
		if err == nil {
			query = query.Where("created_at >= ?", startDate)
		}
	}
	if q.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", q.EndDate)
		if err == nil {
			endDate = endDate.Add(24 * time.Hour)
			query = query.Where("created_at < ?", endDate)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	pageNumber := 1
	if q.PageToken != "" {
		if n, err := strconv.Atoi(q.PageToken); err == nil && n > 0 {
			pageNumber = n
		}
	}

	offset := (pageNumber - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&movements).Error; err != nil {
		return nil, err
	}

	nextPageToken := ""
	if int64(pageNumber*pageSize) < total {
		nextPageToken = strconv.Itoa(pageNumber + 1)
	}

	return &MovementPage{Movements: movements, TotalCount: total, NextPageToken: nextPageToken}, nil
}
