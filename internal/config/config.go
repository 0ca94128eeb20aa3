package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

// Defaults for the upstream data sources.
const (
	defaultFAOAPIURL       = "https://fenixservices.fao.org/faostat/api/v1/en/data/QCL"
	defaultWorldBankAPIURL = "https://api.worldbank.org/v2"
	defaultOWIDCSVURL      = "https://raw.githubusercontent.com/owid/owid-datasets/master/datasets/food-footprints/food-footprints.csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir       string
	ReferenceYear int

	FAOAPIURL       string
	WorldBankAPIURL string
	OWIDCSVURL      string
	HTTPTimeout     time.Duration

	// HTTPAddr empty disables the health/metrics server.
	HTTPAddr string

	// KafkaBrokers empty disables the Kafka sink.
	KafkaBrokers   []string
	KafkaSinkTopic string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StageShares domain.StageShares
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	year, err := parseYear()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	shares := domain.DefaultStageShares()
	if raw := os.Getenv("STAGE_SHARES"); raw != "" {
		shares, err = domain.ParseStageShares(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid STAGE_SHARES: %w", err)
		}
	}

	cfg := &Config{
		DataDir:       envOrDefault("DATA_DIR", "data"),
		ReferenceYear: year,

		FAOAPIURL:       envOrDefault("FAO_API_URL", defaultFAOAPIURL),
		WorldBankAPIURL: envOrDefault("WORLDBANK_API_URL", defaultWorldBankAPIURL),
		OWIDCSVURL:      envOrDefault("OWID_CSV_URL", defaultOWIDCSVURL),
		HTTPTimeout:     httpTimeout,

		HTTPAddr: os.Getenv("HTTP_ADDR"),

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "coffee-footprint-records"),

		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StageShares: shares,
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the record sink should be wired up.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// ConsumptionCachePath is the on-disk location of the FAOSTAT table.
func (c *Config) ConsumptionCachePath() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("coffee_consumption_%d.csv", c.ReferenceYear))
}

// PopulationCachePath is the on-disk location of the World Bank table.
func (c *Config) PopulationCachePath() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("population_%d.csv", c.ReferenceYear))
}

// FactorCachePath is the on-disk location of the OWID factor table. The
// factors are not year-specific, so the name carries no year.
func (c *Config) FactorCachePath() string {
	return filepath.Join(c.DataDir, "coffee_emission_water.csv")
}

// ArtifactPath is where the final footprint table lands.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("coffee_footprint_%d.csv", c.ReferenceYear))
}

// StagesArtifactPath is where the per-stage emission breakdown lands.
func (c *Config) StagesArtifactPath() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("coffee_emission_stages_%d.csv", c.ReferenceYear))
}

func parseYear() (int, error) {
	s := envOrDefault("REFERENCE_YEAR", "2024")
	year, err := strconv.Atoi(s)
	if err != nil || year < 1961 || year > 2100 {
		return 0, fmt.Errorf("invalid REFERENCE_YEAR %q", s)
	}
	return year, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
