// Package countries resolves free-text country names against the ISO-3166
// registry bundled with gountries.
package countries

import (
	"log/slog"
	"strings"

	"github.com/pariz/gountries"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

// Registry implements domain.CountryNormalizer against the embedded
// ISO-3166 dataset. Lookup failure is a degradation, not an error: the
// original spelling passes through with a warning, and that row simply
// won't match canonical names from other sources.
type Registry struct {
	query   *gountries.Query
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRegistry creates a registry-backed normalizer.
func NewRegistry(metrics *observability.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		query:   gountries.New(),
		metrics: metrics,
		logger:  logger,
	}
}

// Normalize resolves a name to the registry's canonical short name. Names
// that look like alpha-2/alpha-3 codes resolve through the code index too,
// matching the original lookup's leniency.
func (r *Registry) Normalize(name string) domain.NormalizationResult {
	if c, err := r.query.FindCountryByName(name); err == nil {
		return r.matched(name, c)
	}
	if n := len(strings.TrimSpace(name)); n == 2 || n == 3 {
		if c, err := r.query.FindCountryByAlpha(strings.TrimSpace(name)); err == nil {
			return r.matched(name, c)
		}
	}

	r.logger.Warn("country not found in registry, using original name", "country", name)
	if r.metrics != nil {
		r.metrics.CountryLookups.WithLabelValues("unmatched").Inc()
	}
	return domain.NormalizationResult{Canonical: name, Original: name}
}

// ResolveAlpha3 resolves an ISO-3166 alpha-3 code.
func (r *Registry) ResolveAlpha3(code string) (domain.NormalizationResult, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return domain.NormalizationResult{}, false
	}
	c, err := r.query.FindCountryByAlpha(code)
	if err != nil {
		return domain.NormalizationResult{}, false
	}
	return r.matched(code, c), true
}

func (r *Registry) matched(original string, c gountries.Country) domain.NormalizationResult {
	if r.metrics != nil {
		r.metrics.CountryLookups.WithLabelValues("matched").Inc()
	}
	return domain.NormalizationResult{
		Canonical: c.Name.Common,
		Original:  original,
		Alpha3:    c.Alpha3,
		Matched:   true,
	}
}
