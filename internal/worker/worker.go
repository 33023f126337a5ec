package worker

import (
	"context"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

const groupID = "activity-writers"

// Persister writes a decoded activity entry.
type Persister interface {
	Persist(ctx context.Context, e *models.ActivityLogEntry) error
}

// Run consumes the activity topic and persists each entry until ctx is done.
// One consumer per process; replicas share partitions through the group.
func Run(ctx context.Context, brokers []string, topic string, p Persister) {
	if len(brokers) == 0 {
		logger.Info(ctx, "Activity worker disabled (no Kafka brokers)")
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	var processed int64
	logger.Info(ctx, "Kafka consumer started", "topic", topic, "group", groupID)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", atomic.LoadInt64(&processed))
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, p, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		atomic.AddInt64(&processed, 1)
	}
}

func handleMessage(ctx context.Context, p Persister, payload []byte) error {
	var e models.ActivityLogEntry
	if err := json.Unmarshal(payload, &e); err != nil {
		return err
	}
	if e.ID == "" {
		return nil
	}
	return p.Persist(ctx, &e)
}
