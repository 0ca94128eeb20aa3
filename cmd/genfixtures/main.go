// Command genfixtures writes deterministic source tables and the artifact
// they produce, for seeding local runs and test suites. It drives the
// actual transform so the expected output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures -year 2024
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/artifact"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/countries"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/filecache"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data/fixtures", "output directory for fixture files")
	year := flag.Int("year", 2024, "reference year stamped into the file names")
	flag.Parse()

	// Fixed clock for reproducible generated_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	consumption := &domain.Table{
		Columns: []string{domain.ColCountry, domain.ColConsumption1000T},
		Rows: [][]string{
			{"Brazil", "1320"},
			{"United States of America", "1490"},
			{"Germany", "560"},
			{"Viet Nam", "180"},
			{"Ethiopia", "230"},
			{"Narnia", "12"}, // deliberately unresolvable
		},
	}
	population := &domain.Table{
		Columns: []string{domain.ColCountry, domain.ColCountryCode, domain.ColPopulation, domain.ColYear},
		Rows: [][]string{
			{"Brazil", "BRA", "212000000", fmt.Sprint(*year)},
			{"United States", "USA", "335000000", fmt.Sprint(*year)},
			{"Germany", "DEU", "84000000", fmt.Sprint(*year)},
			{"Vietnam", "VNM", "100000000", fmt.Sprint(*year)},
			{"Ethiopia", "ETH", "126000000", fmt.Sprint(*year)},
		},
	}
	factors := &domain.Table{
		Columns: []string{domain.ColProduct, domain.ColEmissionFactor, domain.ColWaterFactor},
		Rows:    [][]string{{"Coffee", "28.53", "18900"}},
	}

	writeTable := func(name string, t *domain.Table) error {
		path := filepath.Join(*outDir, name)
		if err := filecache.Write(path, t); err != nil {
			return err
		}
		log.Printf("wrote %s: %d rows", path, len(t.Rows))
		return nil
	}

	if err := writeTable(fmt.Sprintf("coffee_consumption_%d.csv", *year), consumption); err != nil {
		return err
	}
	if err := writeTable(fmt.Sprintf("population_%d.csv", *year), population); err != nil {
		return err
	}
	if err := writeTable("coffee_emission_water.csv", factors); err != nil {
		return err
	}

	logger := observability.NewLogger("info", "text")
	normalizer := countries.NewCachedNormalizer(
		countries.NewRegistry(observability.NewMetrics(), logger),
	)

	records, err := domain.Transform(consumption, factors, population, domain.TransformOptions{
		Year:       *year,
		Normalizer: normalizer,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("building expected artifact: %w", err)
	}

	artifactPath := filepath.Join(*outDir, fmt.Sprintf("coffee_footprint_%d.csv", *year))
	if err := artifact.WriteFootprint(artifactPath, records); err != nil {
		return err
	}
	log.Printf("wrote %s: %d countries", artifactPath, len(records))

	stagesPath := filepath.Join(*outDir, fmt.Sprintf("coffee_emission_stages_%d.csv", *year))
	shares := domain.DefaultStageShares()
	var stages []domain.StageEmission
	for _, rec := range records {
		stages = append(stages, domain.EmissionBreakdown(rec, shares)...)
	}
	if err := artifact.WriteStages(stagesPath, stages); err != nil {
		return err
	}
	log.Printf("wrote %s: %d rows", stagesPath, len(stages))

	return nil
}
