// Command validate performs integrity checks across a footprint run's
// outputs: the cached source tables, the footprint artifact, and the
// per-stage breakdown. It verifies schemas, metric arithmetic, per-capita
// nil handling, and cross-file consistency.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -year 2024
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/artifact"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/filecache"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

const relTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory holding cached sources and artifacts")
	year := flag.Int("year", 2024, "reference year of the run to validate")
	flag.Parse()

	if code := run(*dataDir, *year); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string, year int) int {
	fmt.Println("=== Coffee Footprint Integrity Validation ===")
	fmt.Println()

	footprint, err := filecache.Read(filepath.Join(dataDir, fmt.Sprintf("coffee_footprint_%d.csv", year)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load footprint artifact: %v\n", err)
		return 1
	}

	factors, err := filecache.Read(filepath.Join(dataDir, "coffee_emission_water.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load factor cache: %v\n", err)
		return 1
	}

	// The stage breakdown is optional output.
	var stages *domain.Table
	if stagesPath := filepath.Join(dataDir, fmt.Sprintf("coffee_emission_stages_%d.csv", year)); filecache.Exists(stagesPath) {
		if stages, err = filecache.Read(stagesPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load stage breakdown: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateArtifactSchema(footprint),
		validateMetricArithmetic(footprint, factors),
		validatePerCapitaConsistency(footprint),
		validateCountryUniqueness(footprint),
	}
	if stages != nil {
		phases = append(phases, validateStageBreakdown(footprint, stages))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d footprint, %d factor\n", len(footprint.Rows), len(factors.Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Validation phases ──

func validateArtifactSchema(footprint *domain.Table) *phase {
	p := &phase{name: "Artifact schema"}

	if len(footprint.Columns) != len(artifact.FootprintColumns) {
		p.errorf("header has %d columns, want %d", len(footprint.Columns), len(artifact.FootprintColumns))
		return p
	}
	for i, want := range artifact.FootprintColumns {
		if footprint.Columns[i] != want {
			p.errorf("column %d is %q, want %q", i, footprint.Columns[i], want)
		}
	}
	if last := footprint.Columns[len(footprint.Columns)-1]; last != "iso_alpha" {
		p.errorf("last column is %q, want iso_alpha", last)
	}
	for i, row := range footprint.Rows {
		if len(row) != len(footprint.Columns) {
			p.errorf("row %d has %d cells, want %d", i+1, len(row), len(footprint.Columns))
		}
	}
	return p
}

func validateMetricArithmetic(footprint, factors *domain.Table) *phase {
	p := &phase{name: "Metric arithmetic"}

	if len(factors.Rows) == 0 {
		p.errorf("factor cache has no rows")
		return p
	}
	ef, errE := strconv.ParseFloat(factors.Get(factors.Rows[0], domain.ColEmissionFactor), 64)
	wf, errW := strconv.ParseFloat(factors.Get(factors.Rows[0], domain.ColWaterFactor), 64)
	if errE != nil || errW != nil {
		p.errorf("factor cache row is not numeric: %v %v", errE, errW)
		return p
	}

	for i, row := range footprint.Rows {
		kg, err := strconv.ParseFloat(footprint.Get(row, "consumption_kg"), 64)
		if err != nil {
			p.errorf("row %d: unparseable consumption_kg", i+1)
			continue
		}
		checkProduct(p, i, "total_emission_kgCO2e", footprint.Get(row, "total_emission_kgCO2e"), kg*ef)
		checkProduct(p, i, "total_water_l", footprint.Get(row, "total_water_l"), kg*wf)
	}
	return p
}

func validatePerCapitaConsistency(footprint *domain.Table) *phase {
	p := &phase{name: "Per-capita nil handling"}

	perCapitaCols := []string{"consumption_kg_per_capita", "emission_kgCO2e_per_capita", "water_per_capita"}
	for i, row := range footprint.Rows {
		popRaw := footprint.Get(row, "population")
		hasPop := popRaw != ""
		if hasPop {
			pop, err := strconv.ParseInt(popRaw, 10, 64)
			if err != nil {
				p.errorf("row %d: unparseable population %q", i+1, popRaw)
				continue
			}
			hasPop = pop > 0
		}

		for _, col := range perCapitaCols {
			cell := footprint.Get(row, col)
			if hasPop && cell == "" {
				p.errorf("row %d: population present but %s empty", i+1, col)
			}
			if !hasPop && cell != "" {
				p.errorf("row %d: no usable population but %s is %q", i+1, col, cell)
			}
		}

		kg, errK := strconv.ParseFloat(footprint.Get(row, "consumption_kg"), 64)
		cpcRaw := footprint.Get(row, perCapitaCols[0])
		if hasPop && errK == nil && cpcRaw != "" {
			pop, _ := strconv.ParseInt(popRaw, 10, 64)
			checkProduct(p, i, perCapitaCols[0], cpcRaw, kg/float64(pop))
		}
	}
	return p
}

func validateCountryUniqueness(footprint *domain.Table) *phase {
	p := &phase{name: "Canonical country uniqueness"}

	seen := map[string]int{}
	for i, row := range footprint.Rows {
		name := footprint.Get(row, "country_norm")
		if name == "" {
			p.errorf("row %d: empty country_norm", i+1)
			continue
		}
		if prev, dup := seen[name]; dup {
			p.errorf("rows %d and %d both carry country_norm %q", prev, i+1, name)
		}
		seen[name] = i + 1

		if iso := footprint.Get(row, "iso_alpha"); iso != "" && len(iso) != 3 {
			p.errorf("row %d: iso_alpha %q is not a 3-letter code", i+1, iso)
		}
	}
	return p
}

func validateStageBreakdown(footprint, stages *domain.Table) *phase {
	p := &phase{name: "Stage breakdown totals"}

	totals := map[string]float64{}
	for _, row := range footprint.Rows {
		total, err := strconv.ParseFloat(footprint.Get(row, "total_emission_kgCO2e"), 64)
		if err == nil {
			totals[footprint.Get(row, "country_norm")] = total
		}
	}

	stageSums := map[string]float64{}
	shareSums := map[string]float64{}
	for i, row := range stages.Rows {
		country := stages.Get(row, "country_norm")
		emission, errE := strconv.ParseFloat(stages.Get(row, "emission_kgCO2e"), 64)
		share, errS := strconv.ParseFloat(stages.Get(row, "share"), 64)
		if errE != nil || errS != nil {
			p.errorf("stage row %d: non-numeric values", i+1)
			continue
		}
		stageSums[country] += emission
		shareSums[country] += share
	}

	for country, sum := range stageSums {
		total, ok := totals[country]
		if !ok {
			p.errorf("stage rows for %q have no footprint row", country)
			continue
		}
		if !closeEnough(sum, total) {
			p.errorf("%s: stage emissions sum to %g, footprint total is %g", country, sum, total)
		}
		if shares := shareSums[country]; math.Abs(shares-1) > 0.01 {
			p.errorf("%s: stage shares sum to %g, want 1", country, shares)
		}
	}
	return p
}

// ── Helpers ──

func checkProduct(p *phase, row int, col, cell string, want float64) {
	got, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		p.errorf("row %d: unparseable %s %q", row+1, col, cell)
		return
	}
	if !closeEnough(got, want) {
		p.errorf("row %d: %s is %g, want %g", row+1, col, got, want)
	}
}

func closeEnough(got, want float64) bool {
	if got == want {
		return true
	}
	scale := math.Max(math.Abs(got), math.Abs(want))
	return math.Abs(got-want) <= relTolerance*scale+1e-9
}
