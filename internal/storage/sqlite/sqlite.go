// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/vishal1807gupta/go-splitwise/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCookies replaces the stored cookies of origin in one transaction.
func (s *SQLiteStore) SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cookies WHERE origin = ?", origin); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}

	savedAt := s.now().Unix()
	for _, c := range cookies {
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cookies (id, origin, name, value, domain, path, expires_at, secure, http_only, saved_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), origin, c.Name, c.Value, c.Domain, c.Path, expires, c.Secure, c.HttpOnly, savedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cookie %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadCookies returns the cookies of origin that have not expired.
// Cookies without an expiry never expire here.
func (s *SQLiteStore) LoadCookies(ctx context.Context, origin string) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, domain, path, expires_at, secure, http_only
		 FROM cookies
		 WHERE origin = ? AND (expires_at = 0 OR expires_at > ?)
		 ORDER BY name`,
		origin, s.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		var expires int64
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookies: %w", err)
	}
	return cookies, nil
}

// DeleteCookies removes every cookie of origin.
func (s *SQLiteStore) DeleteCookies(ctx context.Context, origin string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cookies WHERE origin = ?", origin); err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}
