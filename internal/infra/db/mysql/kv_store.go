package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// KVStore keeps history lists in a two-column key/value table.
type KVStore struct {
	db            *sql.DB
	maxValueBytes int
}

// NewKVStore returns a store rejecting values above maxValueBytes; 0 leaves the limit to the server.
func NewKVStore(db *sql.DB, maxValueBytes int) *KVStore {
	return &KVStore{db: db, maxValueBytes: maxValueBytes}
}

// Migrate creates the table if it does not exist.
func (s *KVStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS kv_store (
  k          VARCHAR(191) NOT NULL PRIMARY KEY,
  v          MEDIUMBLOB   NOT NULL,
  updated_at DATETIME(3)  NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT v FROM kv_store WHERE k=?;`
	var v []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql get %s: %w", key, err)
	}
	return v, nil
}

// Set upserts key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("mysql set %s (%d bytes): %w", key, len(value), domain.ErrCapacityExceeded)
	}
	const q = `
INSERT INTO kv_store (k, v, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE
  v=VALUES(v), updated_at=VALUES(updated_at);
`
	_, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC())
	if isCapacityError(err) {
		return fmt.Errorf("mysql set %s: %w: %v", key, domain.ErrCapacityExceeded, err)
	}
	if err != nil {
		return fmt.Errorf("mysql set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
