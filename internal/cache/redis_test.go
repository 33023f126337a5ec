package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

func newTestCache(t *testing.T) (*BoardCache, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })
	return New(rc, time.Minute), m
}

func TestLoadCachesAndInvalidates(t *testing.T) {
	c, m := newTestCache(t)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) (*models.BoardWithDetails, error) {
		atomic.AddInt32(&calls, 1)
		return &models.BoardWithDetails{Board: models.Board{ID: "b1", Title: "Sprint"}, Lists: []models.ListWithTasks{}}, nil
	}

	b, err := c.Load(ctx, "b1", load)
	require.NoError(t, err)
	assert.Equal(t, "Sprint", b.Title)
	assert.True(t, m.Exists("board:b1:details"))
	assert.Equal(t, time.Minute, m.TTL("board:b1:details"))

	b, err = c.Load(ctx, "b1", load)
	require.NoError(t, err)
	assert.Equal(t, "Sprint", b.Title)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	c.Invalidate(ctx, "b1")
	assert.False(t, m.Exists("board:b1:details"))
	_, err = c.Load(ctx, "b1", load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestLoadCoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (*models.BoardWithDetails, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &models.BoardWithDetails{Board: models.Board{ID: "b1"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Load(ctx, "b1", load)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *BoardCache
	boom := errors.New("boom")
	_, err := c.Load(context.Background(), "b1", func(context.Context) (*models.BoardWithDetails, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	c.Invalidate(context.Background(), "b1")
	assert.NoError(t, c.Ping(context.Background()))
	assert.Nil(t, New(nil, time.Minute))
}

func TestLoadDoesNotCacheGraphInvalidatedDuringLoad(t *testing.T) {
	c, m := newTestCache(t)
	ctx := context.Background()
	title := "Old"
	board := func() *models.BoardWithDetails {
		return &models.BoardWithDetails{Board: models.Board{ID: "b1", Title: title}}
	}

	b, err := c.Load(ctx, "b1", func(context.Context) (*models.BoardWithDetails, error) {
		snapshot := board()
		// A writer commits and invalidates after the snapshot was read.
		title = "New"
		c.Invalidate(ctx, "b1")
		return snapshot, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Old", b.Title)
	assert.False(t, m.Exists("board:b1:details"))

	b, err = c.Load(ctx, "b1", func(context.Context) (*models.BoardWithDetails, error) { return board(), nil })
	require.NoError(t, err)
	assert.Equal(t, "New", b.Title)
}

func TestLoadAfterInvalidateDoesNotJoinEarlierLoad(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan *models.BoardWithDetails)
	go func() {
		b, err := c.Load(ctx, "b1", func(context.Context) (*models.BoardWithDetails, error) {
			close(started)
			<-release
			return &models.BoardWithDetails{Board: models.Board{ID: "b1", Title: "Old"}}, nil
		})
		assert.NoError(t, err)
		done <- b
	}()
	<-started
	c.Invalidate(ctx, "b1")

	fresh := func(context.Context) (*models.BoardWithDetails, error) {
		return &models.BoardWithDetails{Board: models.Board{ID: "b1", Title: "New"}}, nil
	}
	b, err := c.Load(ctx, "b1", fresh)
	require.NoError(t, err)
	assert.Equal(t, "New", b.Title)

	close(release)
	assert.Equal(t, "Old", (<-done).Title)

	b, err = c.Load(ctx, "b1", func(context.Context) (*models.BoardWithDetails, error) {
		t.Fatal("expected a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "New", b.Title)
}
