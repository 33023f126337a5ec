// Package realtime fans board events out to in-process subscribers and,
// optionally, to other instances through a redis channel.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"taskflow/internal/metrics"
	"taskflow/pkg/logger"
)

// Listener receives events for one board. A returned error or a panic is
// logged and does not affect other listeners.
//
// Listeners run while the hub holds the board's delivery lock. A listener may
// subscribe, unsubscribe or broadcast to other boards, but it must not call
// Broadcast for its own board: that call would wait on the lock it is running
// under and never return. Hand such events to another goroutine instead.
type Listener func(Event) error

// Broadcaster accepts events for fan-out.
type Broadcaster interface {
	Broadcast(ctx context.Context, e Event)
}

type boardSubs struct {
	listeners map[uint64]Listener
	// deliver serializes broadcasts to this board so every listener sees
	// events in the same order.
	deliver sync.Mutex
}

// Hub is a per-board listener registry. A board key exists only while it has
// at least one listener.
type Hub struct {
	mu     sync.RWMutex
	boards map[string]*boardSubs
	nextID uint64
}

func NewHub() *Hub {
	return &Hub{boards: make(map[string]*boardSubs)}
}

// Subscribe registers l for boardID and returns its unsubscribe function,
// which is safe to call more than once.
func (h *Hub) Subscribe(boardID string, l Listener) (unsubscribe func()) {
	h.mu.Lock()
	b, ok := h.boards[boardID]
	if !ok {
		b = &boardSubs{listeners: make(map[uint64]Listener)}
		h.boards[boardID] = b
	}
	h.nextID++
	id := h.nextID
	b.listeners[id] = l
	boards := len(h.boards)
	h.mu.Unlock()

	metrics.HubSubscribers.Inc()
	metrics.HubBoards.Set(float64(boards))

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(boardID, id) })
	}
}

func (h *Hub) remove(boardID string, id uint64) {
	h.mu.Lock()
	b, ok := h.boards[boardID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := b.listeners[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(b.listeners, id)
	if len(b.listeners) == 0 {
		delete(h.boards, boardID)
	}
	boards := len(h.boards)
	h.mu.Unlock()

	metrics.HubSubscribers.Dec()
	metrics.HubBoards.Set(float64(boards))
}

// Broadcast delivers e to every listener currently subscribed to e.BoardID.
// With no listeners the event is dropped.
func (h *Hub) Broadcast(ctx context.Context, e Event) {
	metrics.EventsBroadcast.WithLabelValues(string(e.Type)).Inc()

	h.mu.RLock()
	b, ok := h.boards[e.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	b.deliver.Lock()
	defer b.deliver.Unlock()

	h.mu.RLock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	h.mu.RUnlock()

	for _, l := range snapshot {
		if err := invoke(l, e); err != nil {
			metrics.ListenerFailures.Inc()
			logger.Warn(ctx, "Realtime listener failed", "error", err, "board_id", e.BoardID, "type", e.Type)
		}
	}
}

func invoke(l Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l(e)
}

// SubscriberCount returns the number of listeners on boardID.
func (h *Hub) SubscriberCount(boardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if b, ok := h.boards[boardID]; ok {
		return len(b.listeners)
	}
	return 0
}

// BoardCount returns the number of boards with at least one listener.
func (h *Hub) BoardCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards)
}
