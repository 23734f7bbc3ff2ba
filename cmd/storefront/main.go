package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pedro664/TimTimBebidas-sub000/internal/catalog"
	"github.com/pedro664/TimTimBebidas-sub000/internal/controller"
	"github.com/pedro664/TimTimBebidas-sub000/internal/handoff"
	"github.com/pedro664/TimTimBebidas-sub000/internal/httpx"
	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
	"github.com/pedro664/TimTimBebidas-sub000/internal/shipping"
	"github.com/pedro664/TimTimBebidas-sub000/internal/shipping/cep"
	"github.com/pedro664/TimTimBebidas-sub000/internal/telemetry"
)

func main() {
	logger := telemetry.InitLogger()

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	catalogDBPath := getEnv("CATALOG_DB_PATH", "storefront.db")
	migrationsPath := getEnv("CATALOG_MIGRATIONS_PATH", "internal/catalog/migrations")
	redisAddr := getEnv("REDIS_ADDR", "")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")
	viaCEPBaseURL := getEnv("VIACEP_BASE_URL", "")

	ctx := context.Background()

	// Catalog
	repo, err := catalog.NewRepository(catalogDBPath)
	if err != nil {
		logger.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	if err := repo.RunMigrations(migrationsPath); err != nil {
		logger.Error("failed to run catalog migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("catalog ready", "path", catalogDBPath)

	// Session store backend: Redis when configured, in-memory otherwise.
	var backend kv.Backend
	if redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", "addr", redisAddr, "error", err)
			os.Exit(1)
		}
		backend = kv.NewRedisBackend(redisClient)
		logger.Info("using redis session backend", "addr", redisAddr)
	} else {
		backend = kv.NewMemoryBackend(kv.DefaultBudget)
		logger.Info("using in-memory session backend")
	}

	// Order handoff channel
	var publisher handoff.Publisher
	if kafkaBrokers != "" {
		kafkaPublisher := handoff.NewKafkaPublisher(strings.Split(kafkaBrokers, ",")...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("publishing order handoffs to kafka", "brokers", kafkaBrokers)
	} else {
		publisher = handoff.NewLogPublisher(logger)
		logger.Info("no kafka brokers configured, logging order handoffs")
	}

	calculator := shipping.NewCalculator(cep.NewClient(viaCEPBaseURL, logger), logger)

	manager := controller.NewManager(backend, calculator, repo, publisher, logger)
	defer manager.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", httpPort),
		Handler: httpx.NewRouter(httpx.NewHandler(manager, repo)),
	}

	go func() {
		logger.Info("storefront listening", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("storefront stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
