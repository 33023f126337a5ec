package queue

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// EnsureTopic creates the activity topic with the given partition count. It
// is best-effort: a missing broker or an existing topic is only logged.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", topic, "partitions", partitions)
}

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ActivityProducer queues activity entries, keyed by board so a board's
// entries stay on one partition in order.
type ActivityProducer struct {
	w MessageWriter
}

// NewActivityProducer builds an async writer for topic.
func NewActivityProducer(ctx context.Context, brokers []string, topic string) *ActivityProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 0,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", topic, "brokers", brokers)
	return &ActivityProducer{w: w}
}

// NewActivityProducerWithWriter wraps an existing writer.
func NewActivityProducerWithWriter(w MessageWriter) *ActivityProducer {
	return &ActivityProducer{w: w}
}

// PublishActivity encodes e and hands it to the writer.
func (p *ActivityProducer) PublishActivity(ctx context.Context, e *models.ActivityLogEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var key []byte
	if e.BoardID != nil {
		key = []byte(*e.BoardID)
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: payload})
}

// Close flushes pending messages.
func (p *ActivityProducer) Close() error {
	return p.w.Close()
}
