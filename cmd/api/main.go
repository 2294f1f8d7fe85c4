package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/gebeya/marketplace-api/internal/config"
	"github.com/gebeya/marketplace-api/internal/exchange"
	"github.com/gebeya/marketplace-api/internal/handler"
	"github.com/gebeya/marketplace-api/internal/middleware"
	"github.com/gebeya/marketplace-api/internal/repository"
	"github.com/gebeya/marketplace-api/internal/service"
	"github.com/gebeya/marketplace-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Exchange rates
	rates := exchange.NewClient(
		cfg.Exchange.APIURL,
		cfg.Exchange.APIKey,
		cfg.Exchange.BaseCurrency,
		cfg.Exchange.Timeout,
		cfg.Exchange.CacheTTL,
		redisClient,
		log,
	)

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	cityRepo := repository.NewCityRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	favoriteRepo := repository.NewFavoriteRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	catalogSvc := service.NewCatalogService(categoryRepo, cityRepo, redisClient)
	productSvc := service.NewProductService(productRepo, categoryRepo, cityRepo, rates, redisClient)
	favoriteSvc := service.NewFavoriteService(favoriteRepo, productRepo)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo, amqpCh)
	orderSvc := service.NewOrderService(orderRepo, productRepo, amqpCh)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	productH := handler.NewProductHandler(productSvc)
	favoriteH := handler.NewFavoriteHandler(favoriteSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	notificationWorker := worker.NewNotificationWorker(amqpCh, worker.NewLogNotifier(log), redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		users := v1.Group("/users", authRequired)
		users.GET("/me", authH.Me)
		users.PUT("/me", authH.UpdateMe)

		categories := v1.Group("/categories")
		categories.GET("", catalogH.ListCategories)

		categoriesAdmin := categories.Group("", authRequired, middleware.AdminOnly())
		categoriesAdmin.POST("", catalogH.CreateCategory)
		categoriesAdmin.PUT("/:id", catalogH.UpdateCategory)
		categoriesAdmin.DELETE("/:id", catalogH.DeleteCategory)
		categoriesAdmin.POST("/bulk-rename", catalogH.BulkRenameCategories)
		categoriesAdmin.POST("/bulk-delete", catalogH.BulkDeleteCategories)

		cities := v1.Group("/cities")
		cities.GET("", catalogH.ListCities)

		citiesAdmin := cities.Group("", authRequired, middleware.AdminOnly())
		citiesAdmin.POST("", catalogH.CreateCity)
		citiesAdmin.PUT("/:id", catalogH.UpdateCity)
		citiesAdmin.DELETE("/:id", catalogH.DeleteCity)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		products.GET("/:id/reviews", reviewH.ListByProduct)

		productsAuth := products.Group("", authRequired)
		productsAuth.POST("", middleware.VendorOrAdmin(), productH.Create)
		productsAuth.GET("/mine", productH.ListMine)
		productsAuth.PUT("/:id", productH.Update)
		productsAuth.DELETE("/:id", productH.Delete)

		favorites := v1.Group("/favorites", authRequired)
		favorites.GET("", favoriteH.ListMine)
		favorites.POST("", favoriteH.Add)
		favorites.DELETE("/:productId", favoriteH.Remove)

		reviews := v1.Group("/reviews", authRequired)
		reviews.POST("", reviewH.Create)
		reviews.PUT("/:id", reviewH.Update)
		reviews.DELETE("/:id", reviewH.Delete)
		reviews.POST("/:id/flag", middleware.AdminOnly(), reviewH.Flag)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.CreateOrder)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id", orderH.UpdateOrder)
		orders.PATCH("/:id/status", orderH.UpdateStatus)
		orders.DELETE("/:id", orderH.DeleteOrder)

		ordersAdmin := orders.Group("", middleware.AdminOnly())
		ordersAdmin.POST("/:id/pay", orderH.MarkPaid)
	}

	if err := notificationWorker.Start(ctx); err != nil {
		log.Error("start notification worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notificationWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
