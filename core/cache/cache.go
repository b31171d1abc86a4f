package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// IDCache maps natural keys to row ids. Misses and backend failures look the same.
type IDCache interface {
	Get(ctx context.Context, key string) (int64, bool)
	Set(ctx context.Context, key string, id int64)
}

// New builds the cache selected by cfg. Redis is pinged once so a bad address fails fast.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (IDCache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Driver {
	case "none":
		return Noop{}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedis(client, cfg.Prefix, ttl, logger), nil
	case "memory", "":
		return NewMemory(ttl), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Noop never remembers anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (int64, bool) { return 0, false }
func (Noop) Set(context.Context, string, int64)        {}

type memoryEntry struct {
	id      int64
	expires time.Time
}

// Memory is a process-local IDCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemory creates an in-process cache. A zero ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string) (int64, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return 0, false
	}
	return e.id, true
}

func (m *Memory) Set(_ context.Context, key string, id int64) {
	e := memoryEntry{id: id}
	if m.ttl > 0 {
		e.expires = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Redis shares ids between processes.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (int64, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *Redis) Set(ctx context.Context, key string, id int64) {
	if err := r.client.Set(ctx, r.key(key), id, r.ttl).Err(); err != nil {
		r.logger.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Resolver collapses concurrent lookups of the same key into one load
// and remembers the result.
type Resolver struct {
	cache IDCache
	sf    singleflight.Group
}

// NewResolver creates a Resolver over c. A nil cache disables caching.
func NewResolver(c IDCache) *Resolver {
	if c == nil {
		c = Noop{}
	}
	return &Resolver{cache: c}
}

type loadResult struct {
	id      int64
	created *atomic.Bool
}

// Resolve returns the cached id for key or calls load. When callers share one
// load that created a row, exactly one of them sees created=true.
// The shared load does not inherit the cancellation of whichever caller started it;
// each caller stops waiting when its own ctx is done.
func (r *Resolver) Resolve(ctx context.Context, key string, load func(ctx context.Context) (int64, bool, error)) (int64, bool, error) {
	if id, ok := r.cache.Get(ctx, key); ok {
		return id, false, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(key, func() (any, error) {
		id, created, err := load(detached)
		if err != nil {
			return nil, err
		}
		r.cache.Set(detached, key, id)
		res := loadResult{id: id, created: &atomic.Bool{}}
		res.created.Store(created)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return 0, false, out.Err
		}
		res := out.Val.(loadResult)
		return res.id, res.created.CompareAndSwap(true, false), nil
	}
}
