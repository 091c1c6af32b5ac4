package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shipquote/internal/config"
	"shipquote/internal/db"
	"shipquote/internal/label"
	"shipquote/internal/logging"
	"shipquote/internal/metrics"
	"shipquote/internal/quote"
	"shipquote/internal/rate"
	"shipquote/internal/server"
	"shipquote/internal/shippo"
	"shipquote/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var catalog warehouse.Catalog
	switch cfg.CatalogSource {
	case config.CatalogPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect db: %w", err)
		}
		defer pool.Close()
		// Verify connectivity proactively
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		catalog = warehouse.NewPostgresCatalog(pool)
	default:
		catalog = warehouse.NewFileCatalog(cfg.WarehousesFile)
	}

	mode := cfg.Mode()
	var provider *shippo.Client
	if mode == rate.ModeLive {
		provider = shippo.New(cfg.ShippoBaseURL, cfg.ShippoToken, shippo.WithObserver(collector.ObserveProvider))
	}

	quotes, err := quote.NewService(mode, catalog, shipmentCreator(provider), quote.WithMetrics(collector))
	if err != nil {
		return err
	}
	labels, err := label.NewService(mode, purchaser(provider), label.WithMetrics(collector))
	if err != nil {
		return err
	}
	h := server.New(quotes, labels, server.WithLogger(logger), server.WithMetrics(collector))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("api listening",
		zap.String("addr", srv.Addr),
		zap.String("mode", string(mode)),
		zap.String("catalog", cfg.CatalogSource))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", zap.Error(err))
		return err
	}
	return nil
}

// A nil *shippo.Client must reach the services as a nil interface so that
// a missing provider is reported instead of called.
func shipmentCreator(c *shippo.Client) rate.ShipmentCreator {
	if c == nil {
		return nil
	}
	return c
}

func purchaser(c *shippo.Client) label.Purchaser {
	if c == nil {
		return nil
	}
	return c
}
