//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/cafedata/coffee-footprint-etl/internal/adapter/kafka"
	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

const testSinkTopic = "coffee-footprint-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("coffee-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	client := &kafkago.Client{Addr: kafkago.TCP(broker)}
	_, err := client.CreateTopics(context.Background(), &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}},
	})
	require.NoError(t, err, "create topic %s", topic)
}

// TestSinkRoundTrip publishes footprint records through the sink writer and
// reads them back, verifying keys, headers, and payload fields survive.
func TestSinkRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	generatedAt := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	pop := int64(212_000_000)
	cpc := 0.00623
	records := []domain.FootprintRecord{
		{
			CountryNorm:            "Brazil",
			OriginalCountry:        "Brasil",
			ConsumptionKg:          1_320_000_000,
			Population:             &pop,
			ConsumptionKgPerCapita: &cpc,
			TotalEmissionKgCO2e:    37_659_600_000,
			TotalWaterL:            24_948_000_000_000,
			ISOAlpha3:              "BRA",
			GeneratedAt:            generatedAt,
		},
		{
			CountryNorm:         "Atlantis",
			OriginalCountry:     "Atlantis",
			ConsumptionKg:       12_000_000,
			TotalEmissionKgCO2e: 342_360_000,
			TotalWaterL:         226_800_000_000,
			GeneratedAt:         generatedAt,
		},
	}

	writer := kafkaadapter.NewWriter([]string{broker}, testSinkTopic, 2024, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.Publish(ctx, records))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byCountry := map[string]domain.FootprintRecord{}
	for len(byCountry) < len(records) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "2024", headers["reference_year"])
		assert.Equal(t, generatedAt.Format(time.RFC3339), headers["generated_at"])

		var rec domain.FootprintRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		assert.Equal(t, rec.CountryNorm, string(msg.Key), "message keyed by canonical name")
		byCountry[rec.CountryNorm] = rec
	}

	brazil := byCountry["Brazil"]
	require.NotNil(t, brazil.Population)
	assert.Equal(t, pop, *brazil.Population)
	assert.Equal(t, "BRA", brazil.ISOAlpha3)
	assert.Equal(t, "Brasil", brazil.OriginalCountry)

	atlantis := byCountry["Atlantis"]
	assert.Nil(t, atlantis.Population, "unmatched country keeps nil population")
	assert.Empty(t, atlantis.ISOAlpha3)
	assert.Equal(t, 342_360_000.0, atlantis.TotalEmissionKgCO2e)
}
