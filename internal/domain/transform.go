package domain

import (
	"log/slog"
	"strconv"
	"strings"
)

// Source names used in schema and missing-input errors.
const (
	SourceConsumption = "consumption"
	SourcePopulation  = "population"
	SourceEmission    = "emission_water"
)

// consumptionQuantityColumns lists the vintage-specific quantity columns in
// preference order (newest first).
var consumptionQuantityColumns = []string{
	ColConsumptionKg,
	ColConsumptionT,
	ColConsumption1000T,
}

// TransformOptions carries the per-run collaborators of the join engine.
// The normalizer is injected per run so its memoization cache cannot leak
// across runs.
type TransformOptions struct {
	// Year filters multi-year population tables; 0 disables the filter.
	Year       int
	Normalizer CountryNormalizer
	Logger     *slog.Logger
}

// Transform joins the three raw tables into the per-country footprint set.
//
// It validates required columns (aborting on the first table with a missing
// column, before producing anything), normalizes country names, converts
// consumption to kilograms, left-joins population by canonical name,
// broadcasts the single global emission/water factor onto every row, and
// derives the per-capita and total metrics. Countries without a population
// match keep nil per-capita fields rather than being dropped.
func Transform(consumption, emission, population *Table, opts TransformOptions) ([]FootprintRecord, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = passthroughNormalizer{}
	}

	for _, in := range []struct {
		name  string
		table *Table
	}{
		{SourceConsumption, consumption},
		{SourceEmission, emission},
		{SourcePopulation, population},
	} {
		if in.table == nil {
			return nil, &MissingInputError{Source: in.name}
		}
	}

	quantityCol, err := validateSchemas(consumption, emission, population)
	if err != nil {
		return nil, err
	}
	unit, _ := MassUnitForColumn(quantityCol)

	factor, err := parseFactor(emission, logger)
	if err != nil {
		return nil, err
	}

	populationByCountry := indexPopulation(population, normalizer, opts.Year, logger)

	now := clock.Now()
	// First-seen original spelling per canonical name, for the reverse
	// lookup that fills original_country.
	firstSeen := make(map[string]string)
	var records []FootprintRecord

	for _, row := range consumption.Rows {
		name := strings.TrimSpace(consumption.Get(row, ColCountry))
		raw := strings.TrimSpace(consumption.Get(row, quantityCol))
		if name == "" || raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warn("unparseable consumption value, dropping row",
				"country", name, "value", raw)
			continue
		}

		res := normalizer.Normalize(name)
		if _, ok := firstSeen[res.Canonical]; !ok {
			firstSeen[res.Canonical] = name
		}

		kg := Quantity{Value: value, Unit: unit}.Kilograms()
		rec := FootprintRecord{
			CountryNorm:         res.Canonical,
			OriginalCountry:     firstSeen[res.Canonical],
			ConsumptionKg:       kg,
			TotalEmissionKgCO2e: kg * factor.EmissionKgCO2ePerKg,
			TotalWaterL:         kg * factor.WaterLPerKg,
			ISOAlpha3:           res.Alpha3,
			GeneratedAt:         now,
		}

		if pop, ok := populationByCountry[res.Canonical]; ok {
			rec.Population = &pop
			if pop > 0 {
				cpc := kg / float64(pop)
				epc := cpc * factor.EmissionKgCO2ePerKg
				wpc := cpc * factor.WaterLPerKg
				rec.ConsumptionKgPerCapita = &cpc
				rec.EmissionKgCO2ePerCapita = &epc
				rec.WaterPerCapita = &wpc
			}
		}

		records = append(records, rec)
	}

	logger.Info("transform complete",
		"countries", len(records),
		"emission_kgCO2e_per_kg", factor.EmissionKgCO2ePerKg,
		"water_l_per_kg", factor.WaterLPerKg,
	)
	return records, nil
}

// validateSchemas checks required columns table by table, failing on the
// first table with anything missing. Returns the consumption quantity
// column in use.
func validateSchemas(consumption, emission, population *Table) (string, error) {
	missing := consumption.MissingColumns(ColCountry)
	quantityCol := ""
	for _, col := range consumptionQuantityColumns {
		if consumption.Col(col) >= 0 {
			quantityCol = col
			break
		}
	}
	if quantityCol == "" {
		missing = append(missing, strings.Join(consumptionQuantityColumns, "|"))
	}
	if len(missing) > 0 {
		return "", &SchemaError{Table: SourceConsumption, Missing: missing}
	}

	if missing := emission.MissingColumns(ColEmissionFactor, ColWaterFactor); len(missing) > 0 {
		return "", &SchemaError{Table: SourceEmission, Missing: missing}
	}

	if missing := population.MissingColumns(ColCountry, ColPopulation); len(missing) > 0 {
		return "", &SchemaError{Table: SourcePopulation, Missing: missing}
	}

	return quantityCol, nil
}

// parseFactor extracts the single global emission/water row. The table is
// expected to hold exactly one usable row; extras are ignored with a
// warning, and a table with none counts as an unavailable source.
func parseFactor(emission *Table, logger *slog.Logger) (EmissionWaterFactor, error) {
	var usable []EmissionWaterFactor
	for _, row := range emission.Rows {
		product := strings.TrimSpace(emission.Get(row, ColProduct))
		if emission.Col(ColProduct) >= 0 && product != "" && !strings.EqualFold(product, "Coffee") {
			continue
		}
		ef, errE := strconv.ParseFloat(strings.TrimSpace(emission.Get(row, ColEmissionFactor)), 64)
		wf, errW := strconv.ParseFloat(strings.TrimSpace(emission.Get(row, ColWaterFactor)), 64)
		if errE != nil || errW != nil {
			continue
		}
		usable = append(usable, EmissionWaterFactor{
			Product:             product,
			Country:             GlobalCountry,
			EmissionKgCO2ePerKg: ef,
			WaterLPerKg:         wf,
		})
	}

	if len(usable) == 0 {
		return EmissionWaterFactor{}, &MissingInputError{Source: SourceEmission}
	}
	if len(usable) > 1 {
		logger.Warn("emission/water table has multiple factor rows, using the first",
			"rows", len(usable))
	}
	return usable[0], nil
}

// indexPopulation builds the canonical-name → population join index.
// The join key is the canonical name, consistently; when a display name
// fails registry lookup but the row carries an alpha-3 code, the code is
// resolved to the same canonical name so the key stays name-based.
// Duplicate countries keep the first-seen value.
func indexPopulation(population *Table, normalizer CountryNormalizer, year int, logger *slog.Logger) map[string]int64 {
	byCountry := make(map[string]int64)
	hasYear := population.Col(ColYear) >= 0
	hasCode := population.Col(ColCountryCode) >= 0

	for _, row := range population.Rows {
		if year > 0 && hasYear {
			y, err := strconv.Atoi(strings.TrimSpace(population.Get(row, ColYear)))
			if err != nil || y != year {
				continue
			}
		}

		raw := strings.TrimSpace(population.Get(row, ColPopulation))
		if raw == "" {
			continue
		}
		pop, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.Warn("unparseable population value, dropping row",
				"country", population.Get(row, ColCountry), "value", raw)
			continue
		}

		name := strings.TrimSpace(population.Get(row, ColCountry))
		if name == "" {
			continue
		}
		res := normalizer.Normalize(name)
		if !res.Matched && hasCode {
			if code := strings.TrimSpace(population.Get(row, ColCountryCode)); code != "" {
				if byCode, ok := normalizer.ResolveAlpha3(code); ok {
					res = byCode
				}
			}
		}

		if _, ok := byCountry[res.Canonical]; !ok {
			byCountry[res.Canonical] = pop
		}
	}
	return byCountry
}

// passthroughNormalizer is the fallback when no registry is wired: every
// name is its own canonical form.
type passthroughNormalizer struct{}

func (passthroughNormalizer) Normalize(name string) NormalizationResult {
	return NormalizationResult{Canonical: name, Original: name}
}

func (passthroughNormalizer) ResolveAlpha3(string) (NormalizationResult, bool) {
	return NormalizationResult{}, false
}
