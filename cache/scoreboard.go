// Package cache holds the Redis-backed scoreboard cache. The scoreboard is
// the hottest read in the system and tolerates short staleness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campuspolls/models"
	"github.com/redis/go-redis/v9"
)

const scoreboardTTL = 30 * time.Second

// ScoreboardCache implements service.ScoreboardCache using JSON-serialized
// entries keyed by result size.
type ScoreboardCache struct {
	rdb *redis.Client
}

// NewScoreboardCache creates a cache backed by the given Redis server
func NewScoreboardCache(addr, password string) *ScoreboardCache {
	return &ScoreboardCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func scoreboardKey(limit int) string {
	return fmt.Sprintf("scoreboard:%d", limit)
}

// Get retrieves a cached scoreboard; a miss returns (nil, nil)
func (c *ScoreboardCache) Get(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	data, err := c.rdb.Get(ctx, scoreboardKey(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get scoreboard: %w", err)
	}

	var entries []*models.ScoreboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("redis: unmarshal scoreboard: %w", err)
	}
	return entries, nil
}

// Set stores a scoreboard with a short TTL
func (c *ScoreboardCache) Set(ctx context.Context, limit int, entries []*models.ScoreboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("redis: marshal scoreboard: %w", err)
	}

	if err := c.rdb.Set(ctx, scoreboardKey(limit), data, scoreboardTTL).Err(); err != nil {
		return fmt.Errorf("redis: set scoreboard: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (c *ScoreboardCache) Close() error {
	return c.rdb.Close()
}
