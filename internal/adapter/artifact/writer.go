// Package artifact writes the final footprint tables as CSV.
package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

// FootprintColumns is the artifact header, in order. iso_alpha stays last
// because downstream dashboards bind to it positionally.
var FootprintColumns = []string{
	"country_norm",
	"original_country",
	"consumption_kg",
	"population",
	"consumption_kg_per_capita",
	"total_emission_kgCO2e",
	"emission_kgCO2e_per_capita",
	"total_water_l",
	"water_per_capita",
	"iso_alpha",
}

// StageColumns is the header of the per-stage emission breakdown.
var StageColumns = []string{
	"country_norm",
	"stage",
	"share",
	"emission_kgCO2e",
}

// Writer is the value the pipeline holds; it delegates to the package
// functions.
type Writer struct{}

func (Writer) WriteFootprint(path string, records []domain.FootprintRecord) error {
	return WriteFootprint(path, records)
}

func (Writer) WriteStages(path string, stages []domain.StageEmission) error {
	return WriteStages(path, stages)
}

// WriteFootprint writes the footprint artifact at path. Nil per-capita
// values become empty cells. The write is atomic: temp file plus rename.
func WriteFootprint(path string, records []domain.FootprintRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.CountryNorm,
			rec.OriginalCountry,
			formatFloat(rec.ConsumptionKg),
			formatInt(rec.Population),
			formatFloatPtr(rec.ConsumptionKgPerCapita),
			formatFloat(rec.TotalEmissionKgCO2e),
			formatFloatPtr(rec.EmissionKgCO2ePerCapita),
			formatFloat(rec.TotalWaterL),
			formatFloatPtr(rec.WaterPerCapita),
			rec.ISOAlpha3,
		})
	}
	return writeCSV(path, FootprintColumns, rows)
}

// WriteStages writes the per-stage emission breakdown at path.
func WriteStages(path string, stages []domain.StageEmission) error {
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		rows = append(rows, []string{
			s.CountryNorm,
			s.Stage,
			formatFloat(s.Share),
			formatFloat(s.EmissionKgCO2e),
		})
	}
	return writeCSV(path, StageColumns, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing artifact header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing artifact rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing artifact %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
