package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Jar is an http.CookieJar that mirrors the backend origin's cookies into a
// Store, so a session survives restarts.
type Jar struct {
	inner  http.CookieJar
	store  Store
	origin *url.URL
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

// NewJar wraps inner and restores the cookies stored for origin into it.
func NewJar(ctx context.Context, inner http.CookieJar, store Store, origin string, logger *slog.Logger) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	j := &Jar{
		inner:   inner,
		store:   store,
		origin:  u,
		logger:  logger.With("component", "cookie_jar"),
		now:     time.Now,
		cookies: make(map[string]*http.Cookie),
	}

	stored, err := store.LoadCookies(ctx, j.key())
	if err != nil {
		return nil, fmt.Errorf("failed to restore cookies: %w", err)
	}
	for _, c := range stored {
		j.cookies[c.Name] = c
	}
	if len(stored) > 0 {
		inner.SetCookies(u, stored)
		j.logger.Debug("Restored session cookies", "origin", j.key(), "count", len(stored))
	}
	return j, nil
}

func (j *Jar) key() string {
	return j.origin.Scheme + "://" + j.origin.Host
}

// SetCookies stores cookies in the inner jar and persists those set by the origin.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	now := j.now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.cookies, c.Name)
			continue
		}
		saved := *c
		if c.MaxAge > 0 {
			saved.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			saved.MaxAge = 0
		}
		j.cookies[c.Name] = &saved
	}
	snapshot := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		snapshot = append(snapshot, c)
	}
	j.mu.Unlock()

	if err := j.store.SaveCookies(context.Background(), j.key(), snapshot); err != nil {
		j.logger.Error("Failed to persist cookies", "origin", j.key(), "error", err)
	}
}

// Cookies returns the cookies to send to u.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// Forget drops the origin's cookies, both persisted and in memory.
func (j *Jar) Forget(ctx context.Context) error {
	j.mu.Lock()
	expired := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		expired = append(expired, &http.Cookie{Name: c.Name, Domain: c.Domain, Path: c.Path, MaxAge: -1})
	}
	j.cookies = make(map[string]*http.Cookie)
	j.mu.Unlock()

	if len(expired) > 0 {
		j.inner.SetCookies(j.origin, expired)
	}
	if err := j.store.DeleteCookies(ctx, j.key()); err != nil {
		return fmt.Errorf("failed to forget cookies: %w", err)
	}
	return nil
}
