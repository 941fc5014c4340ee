package main

import (
	"context"
	"os/signal"
	"syscall"

	"candlestream/config"
	"candlestream/internal/metrics"
	"candlestream/internal/stream"
	"candlestream/logger"
	"candlestream/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// candle store
	client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Environment, true)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer client.Close()

	m := metrics.New()
	handler := stream.NewHandler(cfg.Stream, client, m, log)
	server := stream.NewServer(cfg.Server, handler, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("shutdown complete")
}
