package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
)

// Snapshot is the message published for each computed dashboard.
type Snapshot struct {
	ID         string         `json:"id"`
	ComputedAt time.Time      `json:"computed_at"`
	Outputs    domain.Outputs `json:"outputs"`
}

// SnapshotWriter produces dashboard snapshots to a Kafka topic.
// It implements dashboard.SnapshotPublisher.
type SnapshotWriter struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSnapshotWriter creates a Kafka producer for the configured snapshot topic.
func NewSnapshotWriter(cfg *config.Config, logger *slog.Logger) *SnapshotWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &SnapshotWriter{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// Publish serializes out and writes it as a single message.
func (w *SnapshotWriter) Publish(ctx context.Context, out domain.Outputs) error {
	snap := Snapshot{
		ID:         uuid.NewString(),
		ComputedAt: w.clock.Now().UTC(),
		Outputs:    out,
	}
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.logger.Debug("snapshot published", "id", snap.ID, "city", out.Query.City)
	return nil
}

func (w *SnapshotWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message keyed by its ID.
func serializeToMessage(snap Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "city", Value: []byte(snap.Outputs.Query.City)},
			{Key: "computed_at", Value: []byte(snap.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
