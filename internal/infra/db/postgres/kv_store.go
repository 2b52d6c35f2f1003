package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// program_limit_exceeded class: the row or value is too large for the server.
const errClassProgramLimit = "54"

type KVStore struct {
	db            *sql.DB
	maxValueBytes int
}

func NewKVStore(db *sql.DB, maxValueBytes int) *KVStore {
	return &KVStore{db: db, maxValueBytes: maxValueBytes}
}

func (s *KVStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS kv_store (
  k          TEXT        PRIMARY KEY,
  v          BYTEA       NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT v FROM kv_store WHERE k=$1;`
	var v []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return v, nil
}

// Set inserts or updates key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("postgres set %s (%d bytes): %w", key, len(value), domain.ErrCapacityExceeded)
	}
	const q = `
INSERT INTO kv_store (k, v, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (k) DO UPDATE SET
  v=EXCLUDED.v,
  updated_at=EXCLUDED.updated_at;
`
	_, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC())
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == errClassProgramLimit {
		return fmt.Errorf("postgres set %s: %w: %v", key, domain.ErrCapacityExceeded, err)
	}
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
