package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

// Writer publishes footprint records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer        *kafkago.Writer
	referenceYear int
	logger        *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, referenceYear int, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, referenceYear: referenceYear, logger: logger}
}

// Publish serializes and writes the footprint records to the sink topic in
// a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, records []domain.FootprintRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := w.serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing footprint records: %w", err)
	}
	w.logger.Info("published footprint records", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FootprintRecord into a Kafka message keyed
// by the canonical country name.
func (w *Writer) serializeToMessage(rec domain.FootprintRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize footprint record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CountryNorm),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "reference_year", Value: []byte(strconv.Itoa(w.referenceYear))},
			{Key: "generated_at", Value: []byte(rec.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
