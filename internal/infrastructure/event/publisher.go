// Package event publishes catalog change notifications to Kafka so
// downstream consumers (search indexers, feed exporters) can react to
// replica updates without polling.
package event

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types emitted by the sync layer.
const (
	TypeItemSynced  = "catalog.item.synced"
	TypeItemDeleted = "catalog.item.deleted"
)

// CatalogEvent is the wire format of a catalog change notification.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ItemID    int64     `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits catalog change events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, itemID int64) error
	Close() error
}

// KafkaPublisher implements Publisher over a Kafka topic. Messages are
// keyed by item id so per-item ordering is preserved across partitions.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish sends one event.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, itemID int64) error {
	event := CatalogEvent{
		Type:      eventType,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(itemID, 10)),
		Value: value,
	})
	if err != nil {
		return err
	}

	p.logger.Debug("published catalog event",
		zap.String("type", eventType),
		zap.Int64("item_id", itemID))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. It backs deployments with eventing
// disabled.
type NoopPublisher struct{}

// Publish discards the event.
func (NoopPublisher) Publish(context.Context, string, int64) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
