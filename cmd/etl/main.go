package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/artifact"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/countries"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/fao"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/fetch"
	httpadapter "github.com/cafedata/coffee-footprint-etl/internal/adapter/http"
	kafkaadapter "github.com/cafedata/coffee-footprint-etl/internal/adapter/kafka"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/owid"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/worldbank"
	"github.com/cafedata/coffee-footprint-etl/internal/config"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
	"github.com/cafedata/coffee-footprint-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := fetch.NewClient(cfg.HTTPTimeout, logger)
	normalizer := countries.NewCachedNormalizer(countries.NewRegistry(metrics, logger))

	// Kafka sink is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, cfg.ReferenceYear, logger)
		publisher = kafkaWriter
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(pipeline.Options{
		Consumption: fao.NewClient(fetcher, cfg.FAOAPIURL, cfg.ConsumptionCachePath(), cfg.ReferenceYear, metrics, logger),
		Population:  worldbank.NewClient(fetcher, cfg.WorldBankAPIURL, cfg.PopulationCachePath(), cfg.ReferenceYear, metrics, logger),
		Factors:     owid.NewClient(fetcher, cfg.OWIDCSVURL, cfg.FactorCachePath(), metrics, logger),
		Writer:      artifact.Writer{},
		Publisher:   publisher,

		Normalizer: normalizer,
		Year:       cfg.ReferenceYear,
		Shares:     cfg.StageShares,

		ArtifactPath: cfg.ArtifactPath(),
		StagesPath:   cfg.StagesArtifactPath(),

		Logger:  logger,
		Metrics: metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The health/metrics server is optional; a single batch run usually has
	// no use for it.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline run failed", "error", runErr)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("run complete")
}
