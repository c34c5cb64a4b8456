package client

import (
	"context"
	"slices"
	"time"

	"mentorship/backend/pkg/mentorship"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryCacheSize bounds the number of users a MemoryCache holds.
const memoryCacheSize = 1024

// Cache holds relationship lists keyed by the user they were fetched for.
type Cache interface {
	// Get returns the cached list for userID. ok is false on a miss.
	Get(ctx context.Context, userID uint) (rows []mentorship.Relationship, ok bool, err error)
	Set(ctx context.Context, userID uint, rows []mentorship.Relationship) error
	Invalidate(ctx context.Context, userIDs ...uint) error
}

// MemoryCache is an in-process Cache backed by an expiring LRU. A zero ttl
// keeps entries until they are invalidated or evicted.
type MemoryCache struct {
	lru *expirable.LRU[uint, []mentorship.Relationship]
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: expirable.NewLRU[uint, []mentorship.Relationship](memoryCacheSize, nil, ttl),
	}
}

func (c *MemoryCache) Get(_ context.Context, userID uint) ([]mentorship.Relationship, bool, error) {
	rows, ok := c.lru.Get(userID)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(rows), true, nil
}

func (c *MemoryCache) Set(_ context.Context, userID uint, rows []mentorship.Relationship) error {
	stored := slices.Clone(rows)
	if stored == nil {
		stored = []mentorship.Relationship{}
	}
	c.lru.Add(userID, stored)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userIDs ...uint) error {
	for _, id := range userIDs {
		c.lru.Remove(id)
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
