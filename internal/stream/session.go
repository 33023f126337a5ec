// Package stream bridges one client connection to one hub subscription.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"taskflow/internal/realtime"
	"taskflow/pkg/logger"
)

// ErrSlowConsumer ends a session whose client cannot keep up with the board.
var ErrSlowConsumer = errors.New("stream: client too slow, events dropped")

const defaultBuffer = 64

// FrameWriter is the transport a session writes to.
type FrameWriter interface {
	// WriteFrame sends one JSON frame.
	WriteFrame(b []byte) error
	// WriteHeartbeat sends a keep-alive that clients ignore.
	WriteHeartbeat() error
}

// Subscriber is the part of the hub a session needs.
type Subscriber interface {
	Subscribe(boardID string, l realtime.Listener) (unsubscribe func())
}

type connectedFrame struct {
	Type    string `json:"type"`
	BoardID string `json:"boardId"`
}

// Session streams one board's events to one client. Events caused by the
// client's own user are not forwarded.
type Session struct {
	BoardID   string
	UserID    string
	Hub       Subscriber
	Writer    FrameWriter
	Heartbeat time.Duration
	Buffer    int
}

// Run blocks until ctx is done or a write fails. The hub subscription and
// the heartbeat ticker are released before it returns.
func (s *Session) Run(ctx context.Context) error {
	size := s.Buffer
	if size <= 0 {
		size = defaultBuffer
	}
	events := make(chan realtime.Event, size)
	overflow := make(chan struct{})
	var overflowOnce sync.Once

	unsubscribe := s.Hub.Subscribe(s.BoardID, func(e realtime.Event) error {
		if e.UserID == s.UserID {
			return nil
		}
		select {
		case events <- e:
			return nil
		default:
			overflowOnce.Do(func() { close(overflow) })
			return ErrSlowConsumer
		}
	})
	defer unsubscribe()

	hello, err := json.Marshal(connectedFrame{Type: "connected", BoardID: s.BoardID})
	if err != nil {
		return err
	}
	if err := s.Writer.WriteFrame(hello); err != nil {
		return err
	}

	interval := s.Heartbeat
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-overflow:
			return ErrSlowConsumer
		default:
		}
		select {
		case <-ctx.Done():
			return nil
		case <-overflow:
			return ErrSlowConsumer
		case e := <-events:
			frame, err := e.Frame()
			if err != nil {
				logger.Error(ctx, "Stream event encode failed", "error", err, "type", e.Type)
				continue
			}
			if err := s.Writer.WriteFrame(frame); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.Writer.WriteHeartbeat(); err != nil {
				return err
			}
		}
	}
}
