// Package owid retrieves the per-kilogram emission and water factors for
// coffee from the Our World in Data food-footprint CSV.
package owid

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/fetch"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/filecache"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

const productCoffee = "Coffee"

// Client fetches the emission/water factor table, reading and refreshing
// a local CSV cache. The upstream file covers dozens of foods; only the
// coffee rows are kept.
type Client struct {
	fetcher   *fetch.Client
	csvURL    string
	cachePath string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClient creates an OWID factor client.
func NewClient(fetcher *fetch.Client, csvURL, cachePath string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher:   fetcher,
		csvURL:    csvURL,
		cachePath: cachePath,
		metrics:   metrics,
		logger:    logger,
	}
}

// FetchFactors returns the coffee emission and water intensity rows. A
// cached table short-circuits the download.
func (c *Client) FetchFactors(ctx context.Context) (*domain.Table, error) {
	if filecache.Exists(c.cachePath) {
		c.logger.Info("using cached emission factors", "path", c.cachePath)
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceEmission, "cached").Inc()
		return filecache.Read(c.cachePath)
	}

	c.metrics.FetchAttempts.WithLabelValues(domain.SourceEmission).Inc()
	body, err := c.fetcher.Get(ctx, c.csvURL)
	if err != nil {
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceEmission, "failed").Inc()
		return nil, err
	}

	table, err := parseFactorCSV(body)
	if err != nil {
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceEmission, "failed").Inc()
		return nil, err
	}

	if err := filecache.Write(c.cachePath, table); err != nil {
		return nil, err
	}
	c.metrics.SourcesFetched.WithLabelValues(domain.SourceEmission, "fetched").Inc()
	c.logger.Info("fetched emission factors", "rows", len(table.Rows))
	return table, nil
}

func parseFactorCSV(body []byte) (*domain.Table, error) {
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decoding factor CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("factor CSV is empty")
	}

	header := records[0]
	idx := func(name string) int {
		for i, col := range header {
			if col == name {
				return i
			}
		}
		return -1
	}
	productIdx := idx(domain.ColProduct)
	emissionIdx := idx(domain.ColEmissionFactor)
	waterIdx := idx(domain.ColWaterFactor)
	if productIdx < 0 || emissionIdx < 0 || waterIdx < 0 {
		return nil, fmt.Errorf("factor CSV missing required columns, got header %v", header)
	}

	table := &domain.Table{
		Columns: []string{domain.ColProduct, domain.ColEmissionFactor, domain.ColWaterFactor},
	}
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(rec[productIdx]), productCoffee) {
			continue
		}
		table.Rows = append(table.Rows, []string{
			productCoffee,
			rec[emissionIdx],
			rec[waterIdx],
		})
	}
	return table, nil
}
