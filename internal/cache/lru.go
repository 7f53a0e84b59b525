package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultLRUSize = 256

// LRU is a bounded in-process cache. Entries expire after the TTL given to
// NewLRU; per-call ttl values cannot exceed it.
type LRU struct {
	entries *expirable.LRU[string, []byte]
}

// NewLRU creates a cache holding at most size entries for at most ttl.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = defaultLRUSize
	}
	return &LRU{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (c *LRU) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.entries.Add(key, value)
	return nil
}

func (c *LRU) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (c *LRU) Len() int {
	return c.entries.Len()
}
