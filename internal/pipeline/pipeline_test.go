package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

type stubFetchers struct {
	consumption    *domain.Table
	population     *domain.Table
	factors        *domain.Table
	consumptionErr error
	populationErr  error
	factorsErr     error
}

func (s *stubFetchers) FetchConsumption(context.Context) (*domain.Table, error) {
	return s.consumption, s.consumptionErr
}

func (s *stubFetchers) FetchPopulation(context.Context) (*domain.Table, error) {
	return s.population, s.populationErr
}

func (s *stubFetchers) FetchFactors(context.Context) (*domain.Table, error) {
	return s.factors, s.factorsErr
}

type recordingWriter struct {
	footprintPath string
	footprint     []domain.FootprintRecord
	stagesPath    string
	stages        []domain.StageEmission
}

func (w *recordingWriter) WriteFootprint(path string, records []domain.FootprintRecord) error {
	w.footprintPath = path
	w.footprint = records
	return nil
}

func (w *recordingWriter) WriteStages(path string, stages []domain.StageEmission) error {
	w.stagesPath = path
	w.stages = stages
	return nil
}

type recordingPublisher struct {
	published []domain.FootprintRecord
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, records []domain.FootprintRecord) error {
	p.published = records
	return p.err
}

func goodFetchers() *stubFetchers {
	return &stubFetchers{
		consumption: &domain.Table{
			Columns: []string{domain.ColCountry, domain.ColConsumption1000T},
			Rows: [][]string{
				{"Brazil", "1000"},
				{"Germany", "560"},
			},
		},
		population: &domain.Table{
			Columns: []string{domain.ColCountry, domain.ColPopulation},
			Rows: [][]string{
				{"Brazil", "200000000"},
				{"Germany", "84000000"},
			},
		},
		factors: &domain.Table{
			Columns: []string{domain.ColProduct, domain.ColEmissionFactor, domain.ColWaterFactor},
			Rows:    [][]string{{"Coffee", "5", "1000"}},
		},
	}
}

func newTestPipeline(f *stubFetchers, w *recordingWriter, pub Publisher) *Pipeline {
	return New(Options{
		Consumption:  f,
		Population:   f,
		Factors:      f,
		Writer:       w,
		Publisher:    pub,
		Shares:       domain.DefaultStageShares(),
		ArtifactPath: "out/coffee_footprint_2024.csv",
		StagesPath:   "out/coffee_emission_stages_2024.csv",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      observability.NewMetricsForTesting(),
	})
}

func TestRun_ProducesArtifactAndStages(t *testing.T) {
	writer := &recordingWriter{}
	publisher := &recordingPublisher{}
	p := newTestPipeline(goodFetchers(), writer, publisher)

	require.Error(t, p.CheckReadiness(context.Background()), "not ready before first run")

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, "out/coffee_footprint_2024.csv", writer.footprintPath)
	require.Len(t, writer.footprint, 2)
	assert.Equal(t, "Brazil", writer.footprint[0].CountryNorm)

	require.Len(t, writer.stages, 2*len(domain.DefaultStageShares()))
	assert.Equal(t, "land_use", writer.stages[0].Stage)

	assert.Len(t, publisher.published, 2)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestRun_MissingSourceFailsWithoutArtifact(t *testing.T) {
	fetchers := goodFetchers()
	fetchers.population = nil
	fetchers.populationErr = errors.New("upstream down")

	writer := &recordingWriter{}
	p := newTestPipeline(fetchers, writer, nil)

	err := p.Run(context.Background())
	require.Error(t, err)

	var missing *domain.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, domain.SourcePopulation, missing.Source)

	assert.Empty(t, writer.footprintPath, "no artifact on failed run")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRun_SchemaErrorFailsWithoutArtifact(t *testing.T) {
	fetchers := goodFetchers()
	fetchers.consumption = &domain.Table{
		Columns: []string{"area", "tonnage"},
		Rows:    [][]string{{"Brazil", "1000"}},
	}

	writer := &recordingWriter{}
	p := newTestPipeline(fetchers, writer, nil)

	err := p.Run(context.Background())
	require.Error(t, err)

	var schema *domain.SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Empty(t, writer.footprintPath)
}

func TestRun_PublisherFailureIsNotFatal(t *testing.T) {
	writer := &recordingWriter{}
	publisher := &recordingPublisher{err: errors.New("broker unavailable")}
	p := newTestPipeline(goodFetchers(), writer, publisher)

	require.NoError(t, p.Run(context.Background()))
	assert.NotEmpty(t, writer.footprintPath, "artifact written despite sink failure")
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestRun_NilPublisherSkipsPublishing(t *testing.T) {
	writer := &recordingWriter{}
	p := newTestPipeline(goodFetchers(), writer, nil)

	require.NoError(t, p.Run(context.Background()))
	assert.NotEmpty(t, writer.footprintPath)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(goodFetchers(), &recordingWriter{}, nil)
	err := p.Run(ctx)
	require.Error(t, err)
}
