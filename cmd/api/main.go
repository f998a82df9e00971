package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/goshop/internal/auth"
	"github.com/abduss/goshop/internal/cart"
	"github.com/abduss/goshop/internal/catalog"
	"github.com/abduss/goshop/internal/config"
	"github.com/abduss/goshop/internal/logger"
	"github.com/abduss/goshop/internal/metrics"
	"github.com/abduss/goshop/internal/order"
	"github.com/abduss/goshop/internal/server"
	"github.com/abduss/goshop/internal/storage"
	"github.com/abduss/goshop/internal/user"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()
	db := storage.NewDB(dbPool, log)

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal("connect minio", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO); err != nil {
		log.Fatal("ensure bucket", zap.Error(err))
	}

	userRepo := user.NewRepository(db)
	authRepo := auth.NewRepository(db)
	authService := auth.NewService(auth.Stores{Users: userRepo, Tokens: authRepo, Tx: db}, cfg.Auth, log)
	userService := user.NewService(userRepo, authService, db, log)

	images := catalog.NewMinIOImages(minioClient, cfg.MinIO.Bucket, cfg.Catalog.ImageURLTTL)
	catalogService := catalog.NewService(catalog.NewRepository(db), images, log)
	cartService := cart.NewService(cart.NewRedisStore(redisClient, cfg.Cart.TTL), catalogService, log)
	orderService := order.NewService(order.NewRepository(db), cartService, catalogService, db, log)

	router, table := server.NewRouter(server.Dependencies{
		Config:  cfg,
		Logger:  log,
		Auth:    authService,
		Users:   userService,
		Catalog: catalogService,
		Cart:    cartService,
		Orders:  orderService,
		Checks: []server.ReadinessCheck{
			{Name: "postgres", Check: db.Ping},
			{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "minio", Check: func(ctx context.Context) error {
				return storage.PingObjectStore(ctx, minioClient, cfg.MinIO.Bucket)
			}},
		},
	})
	log.Info("routes guarded", zap.Int("count", len(table)))

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("GoShop API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
