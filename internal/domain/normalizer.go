package domain

// NormalizationResult reports how a free-text country name resolved against
// the ISO-3166 registry. Unmatched names keep Canonical == Original so
// callers can decide to drop, warn, or merge explicitly instead of
// inheriting a silent pass-through.
type NormalizationResult struct {
	Canonical string
	Original  string
	Alpha3    string // empty when unmatched
	Matched   bool
}

// CountryNormalizer maps free-text country names to canonical ISO short
// names. Implementations must be deterministic within a run: the same input
// always yields the same result.
type CountryNormalizer interface {
	// Normalize resolves a free-text name. On lookup failure it returns the
	// input unchanged with Matched == false; it never fails.
	Normalize(name string) NormalizationResult

	// ResolveAlpha3 resolves an ISO-3166 alpha-3 code to the same canonical
	// name Normalize would produce. Used as a secondary resolution path for
	// sources that carry codes alongside unparseable display names.
	ResolveAlpha3(code string) (NormalizationResult, bool)
}
