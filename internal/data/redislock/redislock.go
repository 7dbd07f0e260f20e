// Package redislock provides exclusive sections shared by every service
// instance, backed by redsync mutexes on Redis.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Config is the required properties to use the locker.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Expiry bounds how long a crashed holder keeps a key.
	Expiry time.Duration
	// RetryDelay is the wait between two acquisition attempts.
	RetryDelay time.Duration
	// Prefix namespaces the keys in Redis.
	Prefix string
}

// NewClient opens a Redis client and checks the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Locker implements per-key exclusive sections with redsync.
type Locker struct {
	log *slog.Logger
	rs  *redsync.Redsync
	cfg Config
}

func New(log *slog.Logger, client redis.UniversalClient, cfg Config) *Locker {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 8 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 25 * time.Millisecond
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "walletledger:lock:"
	}

	return &Locker{
		log: log,
		rs:  redsync.New(goredis.NewPool(client)),
		cfg: cfg,
	}
}

// Lock acquires every key in sorted order. Acquisition retries until ctx
// ends; the retry budget of redsync is sized so that ctx is the bound.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*redsync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := l.rs.NewMutex(l.cfg.Prefix+k,
			redsync.WithExpiry(l.cfg.Expiry),
			redsync.WithTries(tries(ctx, l.cfg.RetryDelay)),
			redsync.WithRetryDelay(l.cfg.RetryDelay),
		)
		if err := m.LockContext(ctx); err != nil {
			l.release(held)
			return nil, fmt.Errorf("lock %s: %w", k, err)
		}
		held = append(held, m)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held) })
	}, nil
}

func (l *Locker) release(held []*redsync.Mutex) {
	for i := len(held) - 1; i >= 0; i-- {
		// The caller's context may be gone already.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if ok, err := held[i].UnlockContext(ctx); !ok || err != nil {
			l.log.Warn("redislock: unlock", "key", held[i].Name(), "ERROR", err)
		}
		cancel()
	}
}

func tries(ctx context.Context, delay time.Duration) int {
	const fallback = 64

	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}

	n := int(time.Until(deadline)/delay) + 1
	return max(n, 1)
}
