// Package redis implements the cart key-value store on top of Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

// Store keeps values as plain Redis strings under a common key prefix.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewStore returns a Store using client. Keys are stored as prefix+key and
// expire after ttl; a zero ttl keeps them forever.
func NewStore(client *goredis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns the value for key or cart.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cart.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, nil
}

// Set stores value under key, refreshing its expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the Redis server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
