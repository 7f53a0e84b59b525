package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type snapshot struct {
	Total int `json:"total"`
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRemember(t *testing.T) {
	redisCache, _ := newRedis(t)

	drivers := map[string]Cache{
		"lru":   NewLRU(8, time.Minute),
		"redis": redisCache,
	}

	for name, c := range drivers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			calls := 0
			load := func(context.Context) (snapshot, error) {
				calls++
				return snapshot{Total: 3}, nil
			}

			for i := 0; i < 3; i++ {
				got, err := Remember(ctx, c, "analytics:stats", time.Minute, nil, load)
				if err != nil {
					t.Fatalf("Remember failed: %v", err)
				}
				if got.Total != 3 {
					t.Errorf("got %+v", got)
				}
			}
			if calls != 1 {
				t.Errorf("load called %d times, want 1", calls)
			}

			if err := c.Delete(ctx, "analytics:stats"); err != nil {
				t.Fatal(err)
			}
			if _, err := c.Get(ctx, "analytics:stats"); !errors.Is(err, ErrMiss) {
				t.Errorf("expected miss after delete, got %v", err)
			}
		})
	}
}

func TestRemember_DegradesWhenCacheFails(t *testing.T) {
	calls := 0
	got, err := Remember(context.Background(), brokenCache{}, "k", time.Minute, nil, func(context.Context) (snapshot, error) {
		calls++
		return snapshot{Total: 9}, nil
	})
	if err != nil {
		t.Fatalf("cache failure leaked to caller: %v", err)
	}
	if got.Total != 9 || calls != 1 {
		t.Errorf("got %+v after %d loads", got, calls)
	}
}

func TestRemember_DropsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(8, time.Minute)
	if err := c.Set(ctx, "analytics:overview", []byte("{not json"), time.Minute); err != nil {
		t.Fatal(err)
	}

	_, err := Remember(ctx, c, "analytics:overview", time.Minute, nil, func(context.Context) (snapshot, error) {
		return snapshot{}, errors.New("db down")
	})
	if err == nil {
		t.Fatal("expected the load error")
	}
	if _, err := c.Get(ctx, "analytics:overview"); !errors.Is(err, ErrMiss) {
		t.Errorf("undecodable entry survived: %v", err)
	}

	got, err := Remember(ctx, c, "analytics:overview", time.Minute, nil, func(context.Context) (snapshot, error) {
		return snapshot{Total: 2}, nil
	})
	if err != nil || got.Total != 2 {
		t.Fatalf("Remember = %+v, %v", got, err)
	}
}

func TestRemember_LoadErrorNotCached(t *testing.T) {
	c := NewLRU(8, time.Minute)
	_, err := Remember(context.Background(), c, "k", time.Minute, nil, func(context.Context) (snapshot, error) {
		return snapshot{}, errors.New("db down")
	})
	if err == nil {
		t.Fatal("expected load error")
	}
	if c.Len() != 0 {
		t.Errorf("failed load was cached")
	}
}

func TestRedis_Expiry(t *testing.T) {
	c, mr := newRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte(`{"total":1}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(keyPrefix + "k") {
		t.Fatal("key not written with prefix")
	}

	mr.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss after expiry, got %v", err)
	}
}

func TestRedis_ServerDown(t *testing.T) {
	c, mr := newRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Driver: "memory", TTL: time.Minute}); err != nil {
		t.Errorf("memory driver: %v", err)
	}
	if _, err := New(Config{Driver: "redis"}); err == nil {
		t.Error("redis driver without url should fail")
	}
	if _, err := New(Config{Driver: "redis", RedisURL: "redis://localhost:6379/0"}); err != nil {
		t.Errorf("redis driver: %v", err)
	}
	if _, err := New(Config{Driver: "memcached"}); err == nil {
		t.Error("unknown driver should fail")
	}
}
