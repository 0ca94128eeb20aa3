// Package worldbank retrieves total-population figures from the World
// Bank indicator API.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/fetch"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/filecache"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

const (
	indicatorPopulation = "SP.POP.TOTL"
	perPage             = 1000
	maxPages            = 50 // safety bound, the API reports ~300 rows per year
)

// The API returns a two-element array: metadata, then rows.
type pageMeta struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type pageRow struct {
	CountryISO3 string `json:"countryiso3code"`
	Date        string `json:"date"`
	Value       *int64 `json:"value"`
	Country     struct {
		Value string `json:"value"`
	} `json:"country"`
}

// Client fetches the population table, reading and refreshing a local
// CSV cache.
type Client struct {
	fetcher   *fetch.Client
	baseURL   string
	cachePath string
	year      int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClient creates a World Bank population client.
func NewClient(fetcher *fetch.Client, baseURL, cachePath string, year int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher:   fetcher,
		baseURL:   baseURL,
		cachePath: cachePath,
		year:      year,
		metrics:   metrics,
		logger:    logger,
	}
}

// FetchPopulation returns per-country population for the configured year,
// walking the paginated indicator endpoint until it is exhausted. A cached
// table short-circuits the network calls.
func (c *Client) FetchPopulation(ctx context.Context) (*domain.Table, error) {
	if filecache.Exists(c.cachePath) {
		c.logger.Info("using cached population data", "path", c.cachePath)
		c.metrics.SourcesFetched.WithLabelValues(domain.SourcePopulation, "cached").Inc()
		return filecache.Read(c.cachePath)
	}

	table := &domain.Table{
		Columns: []string{domain.ColCountry, domain.ColCountryCode, domain.ColPopulation, domain.ColYear},
	}
	seen := make(map[string]struct{})

	for page := 1; page <= maxPages; page++ {
		c.metrics.FetchAttempts.WithLabelValues(domain.SourcePopulation).Inc()
		body, err := c.fetcher.Get(ctx, c.pageURL(page))
		if err != nil {
			c.metrics.SourcesFetched.WithLabelValues(domain.SourcePopulation, "failed").Inc()
			return nil, err
		}

		meta, rows, err := parsePage(body)
		if err != nil {
			c.metrics.SourcesFetched.WithLabelValues(domain.SourcePopulation, "failed").Inc()
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		for _, r := range rows {
			if r.Value == nil || r.Country.Value == "" {
				continue
			}
			key := r.CountryISO3 + "|" + r.Date
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			table.Rows = append(table.Rows, []string{
				r.Country.Value,
				r.CountryISO3,
				strconv.FormatInt(*r.Value, 10),
				r.Date,
			})
		}

		if meta.Pages > 0 && page >= meta.Pages {
			break
		}
	}

	if err := filecache.Write(c.cachePath, table); err != nil {
		return nil, err
	}
	c.metrics.SourcesFetched.WithLabelValues(domain.SourcePopulation, "fetched").Inc()
	c.logger.Info("fetched population data",
		"rows", len(table.Rows), "year", c.year)
	return table, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("date", strconv.Itoa(c.year))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/country/all/indicator/%s?%s", c.baseURL, indicatorPopulation, q.Encode())
}

func parsePage(body []byte) (pageMeta, []pageRow, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decoding World Bank response: %w", err)
	}
	if len(envelope) < 2 {
		return pageMeta{}, nil, fmt.Errorf("World Bank response has %d elements, want 2", len(envelope))
	}

	var meta pageMeta
	if err := json.Unmarshal(envelope[0], &meta); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decoding World Bank page metadata: %w", err)
	}

	// The rows element is null past the last page.
	var rows []pageRow
	if string(envelope[1]) != "null" {
		if err := json.Unmarshal(envelope[1], &rows); err != nil {
			return pageMeta{}, nil, fmt.Errorf("decoding World Bank rows: %w", err)
		}
	}
	return meta, rows, nil
}
