package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"currency-rates-service/internal/adapter/cache"
	"currency-rates-service/internal/adapter/feed"
	httpRouter "currency-rates-service/internal/adapter/http"
	"currency-rates-service/internal/config"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"
)

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	log.Info("Starting currency rates service")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics()
	ratesCache := buildCache(cfg, log)

	ratesFeed := feed.NewCbrFeed(
		cfg.Feed.BaseURL,
		cfg.Feed.Timeout,
		log.With("component", "feed"),
	)

	ratesService := service.NewRatesService(ratesFeed, ratesCache, cfg.Cache.TTL, log.With("component", "service"))
	handler := httpRouter.NewHandler(ratesService, log.With("component", "http"), appMetrics)

	router := httpRouter.NewRouter(handler, log.With("component", "http"), appMetrics, cfg.Server.AllowedOrigins)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

func buildCache(cfg *config.Config, log *logger.Logger) ports.RatesCache {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		log.Info("Using redis rates cache", "addr", cfg.Cache.Redis.Addr)
		return cache.NewRedisCache(client, log.With("component", "cache"))
	default:
		log.Info("Using in-memory rates cache")
		return cache.NewMemoryCache(log.With("component", "cache"))
	}
}
