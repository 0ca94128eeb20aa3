// Package fao retrieves green-coffee consumption figures from the FAOSTAT
// API.
package fao

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

// FAOSTAT QCL dimension codes for green-coffee food supply.
const (
	elementFoodSupply = "5401"
	itemGreenCoffee   = "6501"
)

type apiRow struct {
	Area  string   `json:"area"`
	Value *float64 `json:"value"`
}

// Client fetches the consumption table, reading and refreshing a local
// CSV cache.
type Client struct {
	fetcher   *fetch.Client
	baseURL   string
	cachePath string
	year      int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClient creates a FAOSTAT consumption client.
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

// FetchConsumption returns per-country coffee consumption in thousand
// tonnes. A cached table short-circuits the network call.
func (c *Client) FetchConsumption(ctx context.Context) (*domain.Table, error) {
	if filecache.Exists(c.cachePath) {
		c.logger.Info("using cached consumption data", "path", c.cachePath)
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceConsumption, "cached").Inc()
		return filecache.Read(c.cachePath)
	}

	c.metrics.FetchAttempts.WithLabelValues(domain.SourceConsumption).Inc()
	body, err := c.fetcher.Get(ctx, c.requestURL())
	if err != nil {
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceConsumption, "failed").Inc()
		return nil, err
	}

	table, err := parseResponse(body)
	if err != nil {
		c.metrics.SourcesFetched.WithLabelValues(domain.SourceConsumption, "failed").Inc()
		return nil, err
	}

	if err := filecache.Write(c.cachePath, table); err != nil {
		return nil, err
	}
	c.metrics.SourcesFetched.WithLabelValues(domain.SourceConsumption, "fetched").Inc()
	c.logger.Info("fetched consumption data",
		"rows", len(table.Rows), "year", c.year)
	return table, nil
}

func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(c.year))
	q.Set("element", elementFoodSupply)
	q.Set("item", itemGreenCoffee)
	q.Set("area", "all")
	return c.baseURL + "?" + q.Encode()
}

func parseResponse(body []byte) (*domain.Table, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("decoding FAOSTAT response: %w", err)
	}
	raw, ok := keys["data"]
	if !ok {
		return nil, fmt.Errorf("FAOSTAT response has no data key")
	}

	var rows []apiRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding FAOSTAT data rows: %w", err)
	}

	table := &domain.Table{
		Columns: []string{domain.ColCountry, domain.ColConsumption1000T},
	}
	for _, r := range rows {
		if r.Area == "" || r.Value == nil {
			continue
		}
		table.Rows = append(table.Rows, []string{
			r.Area,
			strconv.FormatFloat(*r.Value, 'f', -1, 64),
		})
	}
	return table, nil
}
