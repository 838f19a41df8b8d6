package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boutique-system/config"
	"boutique-system/internal/database"
	"boutique-system/internal/gateway/handlers"
	"boutique-system/internal/gateway/middleware"
	"boutique-system/internal/services/catalog"
	"boutique-system/internal/services/customers"
	"boutique-system/internal/services/exchanges"
	"boutique-system/internal/services/purchasing"
	"boutique-system/internal/services/reservations"
	"boutique-system/internal/services/sales"
	"boutique-system/internal/stock/pgstore"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	jwtSecret := []byte(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	store := pgstore.New(db)
	upserter := customers.NewGormUpserter(db)

	catalogService := catalog.NewService(db, redisClient, logger)
	salesProcessor := sales.NewProcessor(store, upserter, logger)
	reservationManager := reservations.NewManager(store, upserter, logger)
	exchangeProcessor := exchanges.NewProcessor(store, logger)
	purchasingProcessor := purchasing.NewProcessor(store, logger)

	catalogHandler := handlers.NewCatalogHTTPHandler(catalogService)
	salesHandler := handlers.NewSalesHTTPHandler(salesProcessor)
	reservationsHandler := handlers.NewReservationsHTTPHandler(reservationManager)
	exchangesHandler := handlers.NewExchangesHTTPHandler(exchangeProcessor)
	purchasingHandler := handlers.NewPurchasingHTTPHandler(purchasingProcessor)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtSecret))
	{
		items := protected.Group("/stock-items")
		{
			items.POST("", catalogHandler.CreateItem)
			items.GET("", catalogHandler.ListItems)
			items.GET("/low-stock", catalogHandler.ListLowStock)
			items.GET("/:id", catalogHandler.GetItem)
			items.PUT("/:id", catalogHandler.UpdateItem)
			items.GET("/:id/movements", catalogHandler.ListItemMovements)
		}

		categories := protected.Group("/categories")
		{
			categories.POST("", catalogHandler.CreateCategory)
			categories.GET("", catalogHandler.ListCategories)
		}

		protected.GET("/stock-movements", catalogHandler.ListMovements)

		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("", salesHandler.CommitSale)
			salesGroup.GET("/:id", salesHandler.GetSale)
			salesGroup.POST("/:id/cancel", salesHandler.CancelSale)
		}

		reservationGroup := protected.Group("/reservations")
		{
			reservationGroup.POST("", reservationsHandler.Create)
			reservationGroup.GET("", reservationsHandler.List)
			reservationGroup.POST("/sweep-expired", reservationsHandler.SweepExpired)
			reservationGroup.GET("/:id", reservationsHandler.Get)
			reservationGroup.POST("/:id/confirm", reservationsHandler.Confirm)
			reservationGroup.POST("/:id/complete", reservationsHandler.Complete)
			reservationGroup.POST("/:id/cancel", reservationsHandler.Cancel)
		}

		exchangeGroup := protected.Group("/exchanges")
		{
			exchangeGroup.POST("", exchangesHandler.Create)
			exchangeGroup.GET("/:id", exchangesHandler.Get)
			exchangeGroup.PUT("/:id/status", exchangesHandler.UpdateStatus)
		}

		purchaseGroup := protected.Group("/purchase-orders")
		{
			purchaseGroup.POST("", purchasingHandler.CreateOrder)
			purchaseGroup.GET("/:id", purchasingHandler.GetOrder)
			purchaseGroup.POST("/:id/receive", purchasingHandler.ReceiveOrder)
			purchaseGroup.POST("/:id/cancel", purchasingHandler.CancelOrder)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	addr := ":" + cfg.HTTPPort
	logger.Info("Starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
