package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-explorer-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-explorer-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-explorer-service/internal/adapter/source"
	"github.com/couchcryptid/quake-explorer-service/internal/config"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
	"github.com/couchcryptid/quake-explorer-service/internal/view"
)

const provincesGeoJSONURL = "/api/v1/geo/provinces.geojson"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loader := source.NewLoader(source.Options{
		ProvincesPath:        cfg.ProvincesPath,
		FaultsPath:           cfg.FaultsPath,
		EventsPath:           cfg.EventsPath,
		ProvinceKeyProperty:  cfg.ProvinceKeyProperty,
		FaultCatalogProperty: cfg.FaultCatalogProperty,
		FaultCatalogMatch:    cfg.FaultCatalogMatch,
	}, logger)

	p := pipeline.New(loader, cfg.NameMatcher(), logger, metrics)

	// Snapshot export is feature-flagged via KAFKA_ENABLED.
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		p.WithPublisher(publisher, cfg.KafkaPublishTimeout)
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server; /readyz reports not ready until the snapshot exists.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Build the snapshot once; the process serves it until shutdown.
	go serveSnapshot(ctx, p, srv, view.Options{
		ProvincesGeoJSONURL: provincesGeoJSONURL,
		CacheSize:           cfg.FigureCacheSize,
	}, logger, metrics)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// serveSnapshot builds the snapshot and installs the controller before
// publishing. The API is live while the publish is in flight.
func serveSnapshot(ctx context.Context, p *pipeline.Pipeline, srv *httpadapter.Server, opts view.Options, logger *slog.Logger, metrics *observability.Metrics) {
	snap := p.Build(ctx)
	srv.SetController(view.NewController(snap, opts, logger, metrics))
	p.Publish(ctx, snap)
}
