package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StageShare assigns one supply-chain stage its share of total emissions.
type StageShare struct {
	Stage string
	Share float64
}

// StageShares is an ordered table of per-stage emission shares. The shares
// are global averages applied uniformly to every country's total — a known
// simplification of the source data.
type StageShares []StageShare

// DefaultStageShares returns the Our World in Data food supply-chain
// breakdown for coffee.
func DefaultStageShares() StageShares {
	return StageShares{
		{Stage: "land_use", Share: 0.134},
		{Stage: "farming", Share: 0.377},
		{Stage: "processing", Share: 0.021},
		{Stage: "transport", Share: 0.005},
		{Stage: "retail", Share: 0.002},
		{Stage: "packaging", Share: 0.059},
		{Stage: "losses", Share: 0.402},
	}
}

// Validate checks each share is in (0, 1] and the total is 1 within a
// rounding tolerance.
func (s StageShares) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("stage shares: empty table")
	}
	var sum float64
	for _, st := range s {
		if st.Stage == "" {
			return fmt.Errorf("stage shares: empty stage name")
		}
		if st.Share <= 0 || st.Share > 1 {
			return fmt.Errorf("stage shares: %s share %g out of range (0, 1]", st.Stage, st.Share)
		}
		sum += st.Share
	}
	if math.Abs(sum-1) > 0.01 {
		return fmt.Errorf("stage shares: shares sum to %g, want 1", sum)
	}
	return nil
}

// ParseStageShares parses an override of the form
// "land_use=0.134,farming=0.377,...". The result is validated.
func ParseStageShares(s string) (StageShares, error) {
	var shares StageShares
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		stage, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("stage shares: malformed entry %q", pair)
		}
		share, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("stage shares: %s: %w", stage, err)
		}
		shares = append(shares, StageShare{Stage: strings.TrimSpace(stage), Share: share})
	}
	if err := shares.Validate(); err != nil {
		return nil, err
	}
	return shares, nil
}

// StageEmission is one row of the per-country per-stage breakdown artifact.
type StageEmission struct {
	CountryNorm    string  `json:"country_norm"`
	Stage          string  `json:"stage"`
	Share          float64 `json:"share"`
	EmissionKgCO2e float64 `json:"emission_kgCO2e"`
}

// EmissionBreakdown splits a record's total emissions across the stages.
// Output order follows the shares table.
func EmissionBreakdown(rec FootprintRecord, shares StageShares) []StageEmission {
	out := make([]StageEmission, len(shares))
	for i, s := range shares {
		out[i] = StageEmission{
			CountryNorm:    rec.CountryNorm,
			Stage:          s.Stage,
			Share:          s.Share,
			EmissionKgCO2e: rec.TotalEmissionKgCO2e * s.Share,
		}
	}
	return out
}
