package main

import (
	"context"
	"flag"
	"time"

	"github.com/abduss/goshop/internal/config"
	"github.com/abduss/goshop/internal/logger"
	"github.com/abduss/goshop/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if *down {
		if err := storage.MigrateDown(ctx, pool); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("rolled back one migration")
		return
	}
	if err := storage.Migrate(ctx, pool); err != nil {
		log.Fatal("migrate up", zap.Error(err))
	}
	log.Info("migrations applied")
}
