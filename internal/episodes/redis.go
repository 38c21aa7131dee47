package episodes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live run status.
func statusKey(runID string) string  { return "selfplay:" + runID + ":status" }
func counterKey(runID string) string { return "selfplay:" + runID + ":episodes" }

// Status is the live snapshot of a selfplay run.
type Status struct {
	RunID         string    `json:"run_id"`
	Episodes      int       `json:"episodes"`
	Wins          [2]int    `json:"wins"`
	Draws         int       `json:"draws"`
	LatestStart   float64   `json:"latest_start"`
	LastThreshold int       `json:"last_threshold"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Cache stores run status in Redis with a TTL so stale runs expire.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache connects to Redis at the given URL.
func NewCache(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &Cache{rdb: redis.NewClient(opts), ttl: 24 * time.Hour}, nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetStatus stores the live run status.
func (c *Cache) SetStatus(ctx context.Context, st Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return c.rdb.Set(ctx, statusKey(st.RunID), data, c.ttl).Err()
}

// GetStatus retrieves the live run status, or nil if absent.
func (c *Cache) GetStatus(ctx context.Context, runID string) (*Status, error) {
	data, err := c.rdb.Get(ctx, statusKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &st, nil
}

// IncrEpisodes bumps the episode counter for a run.
func (c *Cache) IncrEpisodes(ctx context.Context, runID string) (int64, error) {
	n, err := c.rdb.Incr(ctx, counterKey(runID)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr episodes: %w", err)
	}
	c.rdb.Expire(ctx, counterKey(runID), c.ttl)
	return n, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error { return c.rdb.Close() }
