package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T, m *miniredis.Miniredis, channel string) (*Relay, *Hub) {
	t.Helper()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })

	hub := NewHub()
	relay := NewRelay(hub, rc, channel)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = relay.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("relay did not stop")
		}
	})
	return relay, hub
}

func TestRelayDeliversAcrossInstances(t *testing.T) {
	m := miniredis.RunT(t)
	const channel = "taskflow:test-events"

	relayA, hubA := startRelay(t, m, channel)
	_, hubB := startRelay(t, m, channel)
	require.Eventually(t, func() bool {
		return m.PubSubNumSub(channel)[channel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	var mu sync.Mutex
	var onA, onB []Event
	hubA.Subscribe("b1", collect(&mu, &onA))
	hubB.Subscribe("b1", collect(&mu, &onB))

	relayA.Broadcast(context.Background(), NewEvent("b1", "u1", MemberAdded{UserID: "u2", Role: "member"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(onB) == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, onA, 1, "own events are not delivered twice")
	assert.Equal(t, MemberAdded{UserID: "u2", Role: "member"}, onB[0].Payload)
	assert.Equal(t, "u1", onB[0].UserID)
}
