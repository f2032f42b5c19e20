package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the key was already claimed by an earlier
// request.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore records processed request keys so transition endpoints can
// reject accidental replays. Keys are scoped per module.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims the key, returning ErrIdempotencyConflict when a
// previous request already holds it.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, module, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		key, module, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete frees a key so a failed transition can be retried with the same one.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// Cleanup drops keys older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`,
		time.Now().Add(-olderThan))
	return err
}
