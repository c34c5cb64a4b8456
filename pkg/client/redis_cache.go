package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mentorship/backend/pkg/mentorship"

	"github.com/redis/go-redis/v9"
)

const relationshipsKeyPrefix = "mentorship:relationships:"

// RedisCache is a Cache shared between clients through Redis. Invalidating
// a counterparty's entry here is seen by that counterparty's next read.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(address, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func relationshipsKey(userID uint) string {
	return relationshipsKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Get returns (rows, true, nil) on hit, (nil, false, nil) on miss.
func (c *RedisCache) Get(ctx context.Context, userID uint) ([]mentorship.Relationship, bool, error) {
	val, err := c.client.Get(ctx, relationshipsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get relationships: %w", err)
	}

	var rows []mentorship.Relationship
	if err := json.Unmarshal(val, &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached relationships: %w", err)
	}
	return rows, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uint, rows []mentorship.Relationship) error {
	if rows == nil {
		rows = []mentorship.Relationship{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode relationships: %w", err)
	}
	if err := c.client.Set(ctx, relationshipsKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set relationships: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, relationshipsKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del relationships: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
