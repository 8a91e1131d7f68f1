package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Store = (*KVStore)(nil)

// KVStore implements cart.Store on the kv_store table.
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a KVStore that uses the given pool.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

// Get returns the value stored under key or cart.ErrKeyNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrKeyNotFound
		}
		return nil, fmt.Errorf("getting key %q: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}
	return nil
}
