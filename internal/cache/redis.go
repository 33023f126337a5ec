package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"taskflow/internal/metrics"
	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// NewClient dials redis from a URL and verifies it with a ping.
func NewClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", opts.PoolSize)
	return client, nil
}

// BoardCache is a cache-aside store for board detail graphs. A nil
// *BoardCache is valid and caches nothing.
type BoardCache struct {
	rc    *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func New(rc *redis.Client, ttl time.Duration) *BoardCache {
	if rc == nil {
		return nil
	}
	return &BoardCache{rc: rc, ttl: ttl}
}

func boardKey(boardID string) string {
	return "board:" + boardID + ":details"
}

// genKey counts invalidations of a board. A loaded graph is only cached if
// the count has not moved since the load started.
func genKey(boardID string) string {
	return "board:" + boardID + ":gen"
}

// genTTL outlives any load so a generation cannot reset mid-flight.
const genTTL = 24 * time.Hour

// setIfCurrent stores the graph only while the generation still matches.
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Get reads a cached board. Returns (nil, false) on miss or error.
func (c *BoardCache) Get(ctx context.Context, boardID string) (*models.BoardWithDetails, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rc.Get(ctx, boardKey(boardID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get board failed", "error", err, "board_id", boardID)
		return nil, false
	}
	var board models.BoardWithDetails
	if err := json.Unmarshal(b, &board); err != nil {
		logger.Debug(ctx, "Redis unmarshal board failed", "error", err, "board_id", boardID)
		return nil, false
	}
	return &board, true
}

// generation returns the board's invalidation count; "0" when never invalidated.
func (c *BoardCache) generation(ctx context.Context, boardID string) (string, error) {
	gen, err := c.rc.Get(ctx, genKey(boardID)).Result()
	if err == redis.Nil {
		return "0", nil
	}
	return gen, err
}

// set stores board unless the board was invalidated after gen was read.
func (c *BoardCache) set(ctx context.Context, board *models.BoardWithDetails, gen string) {
	b, err := json.Marshal(board)
	if err != nil {
		logger.Debug(ctx, "Marshal board for cache failed", "error", err)
		return
	}
	stored, err := setIfCurrent.Run(ctx, c.rc,
		[]string{genKey(board.ID), boardKey(board.ID)},
		gen, b, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Debug(ctx, "Redis set board failed", "error", err, "board_id", board.ID)
		return
	}
	if stored == 0 {
		logger.Debug(ctx, "Board changed during load, not caching", "board_id", board.ID)
	}
}

// Invalidate drops the cached board and bumps its generation so loads that
// started earlier cannot write their result back.
func (c *BoardCache) Invalidate(ctx context.Context, boardID string) {
	if c == nil {
		return
	}
	_, err := c.rc.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(boardID))
		p.Expire(ctx, genKey(boardID), genTTL)
		p.Del(ctx, boardKey(boardID))
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "Redis invalidate board failed", "error", err, "board_id", boardID)
	}
}

// Load returns the cached board or calls load once per board generation
// across concurrent misses. A caller that arrives after an invalidation
// never shares a load that started before it.
func (c *BoardCache) Load(ctx context.Context, boardID string, load func(context.Context) (*models.BoardWithDetails, error)) (*models.BoardWithDetails, error) {
	if c == nil {
		return load(ctx)
	}
	gen, err := c.generation(ctx, boardID)
	if err != nil {
		logger.Debug(ctx, "Redis read board generation failed", "error", err, "board_id", boardID)
		return load(ctx)
	}
	if board, ok := c.Get(ctx, boardID); ok {
		metrics.CacheHits.Inc()
		return board, nil
	}
	metrics.CacheMisses.Inc()
	v, err, _ := c.group.Do(boardID+"@"+gen, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		board, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, board, gen)
		return board, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.BoardWithDetails), nil
}

// Ping reports whether redis is reachable. A nil cache is always reachable.
func (c *BoardCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rc.Ping(ctx).Err()
}
