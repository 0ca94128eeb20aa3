package fao

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafedata/coffee-footprint-etl/internal/adapter/fetch"
	"github.com/cafedata/coffee-footprint-etl/internal/adapter/filecache"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
	"github.com/cafedata/coffee-footprint-etl/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := discardLogger()
	return NewClient(
		fetch.NewClient(5*time.Second, logger),
		baseURL,
		filepath.Join(t.TempDir(), "coffee_consumption_2024.csv"),
		2024,
		observability.NewMetricsForTesting(),
		logger,
	)
}

func TestFetchConsumption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		assert.Equal(t, "5401", r.URL.Query().Get("element"))
		assert.Equal(t, "6501", r.URL.Query().Get("item"))
		_, _ = w.Write([]byte(`{"data":[
			{"area":"Brazil","value":1320.5},
			{"area":"Viet Nam","value":180},
			{"area":"Atlantis","value":null},
			{"area":"","value":3}
		]}`))
	}))
	defer srv.Close()

	table, err := newTestClient(t, srv.URL).FetchConsumption(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ColCountry, domain.ColConsumption1000T}, table.Columns)
	assert.Equal(t, [][]string{
		{"Brazil", "1320.5"},
		{"Viet Nam", "180"},
	}, table.Rows, "rows without a value must be dropped")
}

func TestFetchConsumption_WritesAndPrefersCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":[{"area":"Brazil","value":1320.5}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.FetchConsumption(context.Background())
	require.NoError(t, err)
	require.True(t, filecache.Exists(client.cachePath))

	// Second fetch is served from disk.
	table, err := client.FetchConsumption(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Brazil", "1320.5"}}, table.Rows)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchConsumption_MissingDataKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchConsumption(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data key")
}

func TestFetchConsumption_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchConsumption(context.Background())
	require.Error(t, err)
}
