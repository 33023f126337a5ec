package realtime

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskflow/internal/metrics"
	"taskflow/pkg/logger"
)

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Relay broadcasts locally and mirrors every event to a redis channel so hubs
// in other processes deliver it too. Events this instance published are
// skipped on the way back in.
type Relay struct {
	hub        *Hub
	rc         *redis.Client
	channel    string
	instanceID string
	retryDelay time.Duration
}

func NewRelay(hub *Hub, rc *redis.Client, channel string) *Relay {
	return &Relay{
		hub:        hub,
		rc:         rc,
		channel:    channel,
		instanceID: uuid.NewString(),
		retryDelay: time.Second,
	}
}

// Broadcast delivers e to local listeners and publishes it for other instances.
func (r *Relay) Broadcast(ctx context.Context, e Event) {
	r.hub.Broadcast(ctx, e)

	b, err := json.Marshal(envelope{Origin: r.instanceID, Event: e})
	if err != nil {
		logger.Error(ctx, "Relay marshal failed", "error", err, "type", e.Type)
		return
	}
	if err := r.rc.Publish(ctx, r.channel, b).Err(); err != nil {
		metrics.RelayMessages.WithLabelValues("publish_failed").Inc()
		logger.Warn(ctx, "Relay publish failed", "error", err, "board_id", e.BoardID, "type", e.Type)
		return
	}
	metrics.RelayMessages.WithLabelValues("out").Inc()
}

// Run consumes the channel until ctx is done, resubscribing whenever the
// subscription drops.
func (r *Relay) Run(ctx context.Context) error {
	logger.Info(ctx, "Realtime relay started", "channel", r.channel, "instance_id", r.instanceID)
	for {
		sub := r.rc.Subscribe(ctx, r.channel)
		if _, err := sub.Receive(ctx); err != nil {
			if ctx.Err() == nil {
				logger.Warn(ctx, "Relay subscribe failed", "error", err)
			}
		} else {
			r.consume(ctx, sub.Channel())
		}
		_ = sub.Close()

		if ctx.Err() != nil {
			return nil
		}
		logger.Warn(ctx, "Relay subscription closed, reconnecting", "channel", r.channel)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.retryDelay):
		}
	}
}

func (r *Relay) consume(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		logger.Warn(ctx, "Relay message dropped", "error", err)
		return
	}
	if env.Origin == r.instanceID {
		return
	}
	metrics.RelayMessages.WithLabelValues("in").Inc()
	r.hub.Broadcast(ctx, env.Event)
}
