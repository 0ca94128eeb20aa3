// Package pipeline orchestrates one fetch-transform-persist run of the
// coffee footprint build.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

// ConsumptionFetcher retrieves the per-country coffee consumption table.
type ConsumptionFetcher interface {
	FetchConsumption(ctx context.Context) (*domain.Table, error)
}

// PopulationFetcher retrieves the per-country population table.
type PopulationFetcher interface {
	FetchPopulation(ctx context.Context) (*domain.Table, error)
}

// FactorFetcher retrieves the emission/water factor table.
type FactorFetcher interface {
	FetchFactors(ctx context.Context) (*domain.Table, error)
}

// ArtifactWriter persists the footprint and stage tables.
type ArtifactWriter interface {
	WriteFootprint(path string, records []domain.FootprintRecord) error
	WriteStages(path string, stages []domain.StageEmission) error
}

// Publisher pushes the finished records to a downstream sink. Optional;
// a nil Publisher disables publishing.
type Publisher interface {
	Publish(ctx context.Context, records []domain.FootprintRecord) error
}

// Options bundles the pipeline's collaborators and output locations.
type Options struct {
	Consumption ConsumptionFetcher
	Population  PopulationFetcher
	Factors     FactorFetcher
	Writer      ArtifactWriter
	Publisher   Publisher

	Normalizer domain.CountryNormalizer
	Year       int
	Shares     domain.StageShares

	ArtifactPath string
	StagesPath   string

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Pipeline runs the extract-transform-load sequence once per invocation.
type Pipeline struct {
	opts  Options
	ready atomic.Bool
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// CheckReadiness returns nil once a run has produced an artifact.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no footprint artifact produced yet")
	}
	return nil
}

// Run fetches the three sources concurrently, joins them, and persists the
// footprint artifacts. A source that cannot be fetched surfaces as a
// MissingInputError; no partial artifact is ever written.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.opts.Logger
	metrics := p.opts.Metrics

	logger.Info("pipeline run starting", "year", p.opts.Year)
	metrics.PipelineRunning.Set(1)
	defer metrics.PipelineRunning.Set(0)
	start := time.Now()

	var consumption, population, factors *domain.Table

	// Each fetch failure is logged where it happens and folded into a
	// MissingInputError afterwards, so a broken source names itself instead
	// of surfacing as a bare HTTP error.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if consumption, err = p.opts.Consumption.FetchConsumption(gctx); err != nil {
			logger.Error("consumption fetch failed", "error", err)
			consumption = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if population, err = p.opts.Population.FetchPopulation(gctx); err != nil {
			logger.Error("population fetch failed", "error", err)
			population = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if factors, err = p.opts.Factors.FetchFactors(gctx); err != nil {
			logger.Error("factor fetch failed", "error", err)
			factors = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := domain.Transform(consumption, factors, population, domain.TransformOptions{
		Year:       p.opts.Year,
		Normalizer: p.opts.Normalizer,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if err := p.opts.Writer.WriteFootprint(p.opts.ArtifactPath, records); err != nil {
		return err
	}
	metrics.ArtifactRows.Set(float64(len(records)))
	logger.Info("footprint artifact written",
		"path", p.opts.ArtifactPath, "countries", len(records))

	if err := p.writeStages(records); err != nil {
		return err
	}

	p.ready.Store(true)
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	// Publishing is best effort: the artifact on disk is the contract, the
	// sink is a convenience feed.
	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.Publish(ctx, records); err != nil {
			logger.Error("publishing footprint records failed", "error", err)
		}
	}

	return nil
}

func (p *Pipeline) writeStages(records []domain.FootprintRecord) error {
	if p.opts.StagesPath == "" || len(p.opts.Shares) == 0 {
		return nil
	}
	stages := make([]domain.StageEmission, 0, len(records)*len(p.opts.Shares))
	for _, rec := range records {
		stages = append(stages, domain.EmissionBreakdown(rec, p.opts.Shares)...)
	}
	if err := p.opts.Writer.WriteStages(p.opts.StagesPath, stages); err != nil {
		return err
	}
	p.opts.Logger.Info("stage breakdown written",
		"path", p.opts.StagesPath, "rows", len(stages))
	return nil
}
