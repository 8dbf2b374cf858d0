// Package store provides the key-value persistence used for shipment
// records, id sequences and mapping templates.
//
// Three backends implement Store:
//
//	memory   - process-local map, the default and the CLI's store
//	redis    - github.com/redis/go-redis, keys namespaced by a prefix
//	postgres - a single kv_store table through a pgx connection pool
//
// Values are opaque bytes; callers own the encoding.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get and Delete for a missing key.
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal ordered key-value store.
type Store interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key, returning ErrNotFound if it did not exist.
	Delete(ctx context.Context, key string) error
	// Keys returns every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Incr atomically increments the counter at key and returns the new value.
	// A missing counter starts at zero.
	Incr(ctx context.Context, key string) (int64, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	RedisURL    string
	RedisPrefix string

	DatabaseURL     string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Open connects to the configured backend and verifies it with Ping.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		s, err = OpenRedis(cfg.RedisURL, cfg.RedisPrefix)
	case BackendPostgres:
		s, err = OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
