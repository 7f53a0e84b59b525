// Package cache holds the analytics read-through cache. Values are stored as
// JSON bytes so the in-process and Redis drivers are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hiretrack/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value store with per-key expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var lookups metric.Int64Counter

func init() {
	lookups, _ = otel.Meter("hiretrack/cache").Int64Counter("analytics_cache_lookups_total",
		metric.WithDescription("Analytics cache lookups by result (hit, miss, error)"))
}

// Remember returns the cached value for key, or calls load and caches its result.
// Cache failures are logged and fall through to load; they never fail the call.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, log *slog.Logger, load func(context.Context) (T, error)) (T, error) {
	if log == nil {
		log = slog.Default()
	}
	log = logger.FromContext(ctx, log)

	if c != nil {
		raw, err := c.Get(ctx, key)
		switch {
		case err == nil:
			var v T
			uerr := json.Unmarshal(raw, &v)
			if uerr == nil {
				record(ctx, "hit")
				return v, nil
			}
			record(ctx, "error")
			log.Warn("discarding undecodable cache entry", "key", key, "error", uerr)
			if err := c.Delete(ctx, key); err != nil {
				log.Warn("cache delete failed", "key", key, "error", err)
			}
		case errors.Is(err, ErrMiss):
			record(ctx, "miss")
		default:
			record(ctx, "error")
			log.Warn("cache read failed", "key", key, "error", err)
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if c != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			log.Warn("cache encode failed", "key", key, "error", err)
			return v, nil
		}
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func record(ctx context.Context, result string) {
	lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Config selects and sizes a driver.
type Config struct {
	Driver   string // "memory" or "redis"
	RedisURL string
	Size     int
	TTL      time.Duration
}

// New builds the configured driver.
func New(cfg Config) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewLRU(cfg.Size, cfg.TTL), nil
	case "redis":
		return NewRedisFromURL(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Put encodes v and stores it under key, replacing any cached value.
func Put[T any](ctx context.Context, c Cache, key string, ttl time.Duration, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
