package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// footprint ETL run.
type Metrics struct {
	SourcesFetched *prometheus.CounterVec // labels: source={consumption,population,emission_water}, outcome={fetched,cached,failed}
	CountryLookups *prometheus.CounterVec // labels: result={matched,unmatched}
	FetchAttempts  *prometheus.CounterVec // labels: source; one increment per upstream request

	ArtifactRows    prometheus.Gauge
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SourcesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coffee_etl",
			Name:      "sources_fetched_total",
			Help:      "Source retrievals by source and outcome.",
		}, []string{"source", "outcome"}),
		CountryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coffee_etl",
			Name:      "country_lookups_total",
			Help:      "Registry lookups by result.",
		}, []string{"result"}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coffee_etl",
			Name:      "fetch_attempts_total",
			Help:      "Upstream HTTP requests issued, by source.",
		}, []string{"source"}),
		ArtifactRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coffee_etl",
			Name:      "artifact_rows",
			Help:      "Countries in the final footprint artifact.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coffee_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-transform-persist run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coffee_etl",
			Name:      "pipeline_running",
			Help:      "1 while the run is active, 0 when finished.",
		}),
	}

	prometheus.MustRegister(
		m.SourcesFetched,
		m.CountryLookups,
		m.FetchAttempts,
		m.ArtifactRows,
		m.RunDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SourcesFetched:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coffee_etl", Name: "sources_fetched_total"}, []string{"source", "outcome"}),
		CountryLookups:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coffee_etl", Name: "country_lookups_total"}, []string{"result"}),
		FetchAttempts:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coffee_etl", Name: "fetch_attempts_total"}, []string{"source"}),
		ArtifactRows:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coffee_etl", Name: "artifact_rows"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coffee_etl", Name: "run_duration_seconds"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coffee_etl", Name: "pipeline_running"}),
	}
}
