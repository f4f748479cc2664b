// Package storage persists the session cookie between runs. It is the only
// client state that survives a restart; everything else is re-fetched.
package storage

import (
	"context"
	"net/http"
)

// Store defines the interface for cookie persistence.
// This abstraction allows swapping storage backends without changing the jar.
type Store interface {
	// SaveCookies replaces every stored cookie of origin with cookies.
	SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error

	// LoadCookies returns the unexpired cookies stored for origin.
	LoadCookies(ctx context.Context, origin string) ([]*http.Cookie, error)

	// DeleteCookies forgets every cookie of origin.
	DeleteCookies(ctx context.Context, origin string) error

	// Close releases any resources held by the store.
	Close() error
}
