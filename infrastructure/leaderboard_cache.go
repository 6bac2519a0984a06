package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tonflip/domain/entities"

	"github.com/go-redis/redis/v8"
)

const leaderboardKeyPrefix = "tonflip:leaderboard:"

var leaderboardSorts = []entities.LeaderboardSort{
	entities.LeaderboardSortPoints,
	entities.LeaderboardSortVolume,
	entities.LeaderboardSortWins,
}

// RedisLeaderboardCache stores computed leaderboards as JSON strings in Redis
type RedisLeaderboardCache struct {
	client *redis.Client
}

// NewRedisLeaderboardCache connects to the Redis server at redisURL
func NewRedisLeaderboardCache(ctx context.Context, redisURL string) (*RedisLeaderboardCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisLeaderboardCache{client: client}, nil
}

func leaderboardKey(sort entities.LeaderboardSort) string {
	return leaderboardKeyPrefix + string(sort)
}

// Get returns nil, nil on a cache miss
func (c *RedisLeaderboardCache) Get(ctx context.Context, sort entities.LeaderboardSort) ([]*entities.LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, leaderboardKey(sort)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached leaderboard: %w", err)
	}

	var entries []*entities.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return entries, nil
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, sort entities.LeaderboardSort, entries []*entities.LeaderboardEntry, ttl time.Duration) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := c.client.Set(ctx, leaderboardKey(sort), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}
	return nil
}

// Invalidate drops every cached leaderboard
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(leaderboardSorts))
	for _, sort := range leaderboardSorts {
		keys = append(keys, leaderboardKey(sort))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboards: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisLeaderboardCache) Close() error {
	return c.client.Close()
}
