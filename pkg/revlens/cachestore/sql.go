package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// DefaultSQLName is the row name the snapshot is stored under.
const DefaultSQLName = "product_profiles"

// SQLStore keeps the blob in a profile_cache table next to the review data.
type SQLStore struct {
	db     *sql.DB
	driver string
	name   string
}

// NewSQLStore creates the profile_cache table if needed. driver is
// "sqlite" or "mysql".
func NewSQLStore(ctx context.Context, db *sql.DB, driver, name string) (*SQLStore, error) {
	if name == "" {
		name = DefaultSQLName
	}
	var ddl string
	switch driver {
	case "sqlite":
		ddl = `CREATE TABLE IF NOT EXISTS profile_cache (
	name TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS profile_cache (
	name VARCHAR(64) PRIMARY KEY,
	payload LONGBLOB NOT NULL,
	updated_at DATETIME NOT NULL
)`
	default:
		return nil, fmt.Errorf("profile cache driver %q: %w", driver, internalerr.ErrInvalidConfig)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create profile_cache: %w: %w", internalerr.ErrStoreUnavailable, err)
	}
	return &SQLStore{db: db, driver: driver, name: name}, nil
}

// Get implements BlobStore.
func (s *SQLStore) Get(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM profile_cache WHERE name = ?`, s.name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile_cache: %w: %w", internalerr.ErrStoreUnavailable, err)
	}
	return blob, nil
}

// Put implements BlobStore.
func (s *SQLStore) Put(ctx context.Context, blob []byte) error {
	stmt := `INSERT INTO profile_cache (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if s.driver == "mysql" {
		stmt = `INSERT INTO profile_cache (name, payload, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	}
	if _, err := s.db.ExecContext(ctx, stmt, s.name, blob, time.Now().UTC()); err != nil {
		return fmt.Errorf("write profile_cache: %w: %w", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}
