package domain

import "time"

// GlobalCountry is the sentinel assigned to the emission/water factor row.
// The factor is a planet-wide average, not a per-country figure.
const GlobalCountry = "Global"

// Column names shared between the raw source tables and the final artifact.
const (
	ColCountry        = "country"
	ColCountryCode    = "country_code"
	ColPopulation     = "population"
	ColYear           = "year"
	ColProduct        = "product"
	ColEmissionFactor = "emission_kgCO2e_per_kg"
	ColWaterFactor    = "water_l_per_kg"
)

// EmissionWaterFactor is the single global row of the emission/water table.
type EmissionWaterFactor struct {
	Product             string  `json:"product"`
	Country             string  `json:"country"` // always GlobalCountry
	EmissionKgCO2ePerKg float64 `json:"emission_kgCO2e_per_kg"`
	WaterLPerKg         float64 `json:"water_l_per_kg"`
}

// FootprintRecord is one row of the final artifact. Per-capita fields and
// Population are nil when the population join found no match; totals are
// always present.
type FootprintRecord struct {
	CountryNorm             string   `json:"country_norm"`
	OriginalCountry         string   `json:"original_country"`
	ConsumptionKg           float64  `json:"consumption_kg"`
	Population              *int64   `json:"population"`
	ConsumptionKgPerCapita  *float64 `json:"consumption_kg_per_capita"`
	TotalEmissionKgCO2e     float64  `json:"total_emission_kgCO2e"`
	EmissionKgCO2ePerCapita *float64 `json:"emission_kgCO2e_per_capita"`
	TotalWaterL             float64  `json:"total_water_l"`
	WaterPerCapita          *float64 `json:"water_per_capita"`

	// ISOAlpha3 is empty when the country name did not resolve against the
	// registry. The dashboard's choropleth binds to it.
	ISOAlpha3 string `json:"iso_alpha"`

	// GeneratedAt is the run timestamp; not part of the CSV schema.
	GeneratedAt time.Time `json:"generated_at"`
}
