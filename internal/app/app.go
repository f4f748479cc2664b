// Package app wires the client components together: the API client with its
// persistent cookie jar, the session manager, and per-group pages that are
// only available to an authenticated user.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/auth"
	"github.com/vishal1807gupta/go-splitwise/internal/config"
	"github.com/vishal1807gupta/go-splitwise/internal/metrics"
	"github.com/vishal1807gupta/go-splitwise/internal/roster"
	"github.com/vishal1807gupta/go-splitwise/internal/storage"
	"github.com/vishal1807gupta/go-splitwise/internal/storage/sqlite"
)

// App is one signed-in (or signing-in) client.
type App struct {
	Client  *api.Client
	Session *auth.Manager
	Roster  *roster.Manager

	logger *slog.Logger
	store  storage.Store
	jar    *storage.Jar
}

type options struct {
	logger   *slog.Logger
	registry prometheus.Registerer
	store    storage.Store
}

// Option configures an App.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics registers API metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSessionStore persists the session cookie in store instead of the
// sqlite file named by the config. The App closes it.
func WithSessionStore(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New builds the client stack for cfg. The session is not checked yet; call
// Session.CheckSession once on startup.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: o.logger, store: o.store}
	if a.store == nil && cfg.SessionDBPath != "" {
		store, err := sqlite.New(cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		a.store = store
	}

	jar, err := api.NewCookieJar()
	if err != nil {
		a.closeStore()
		return nil, err
	}
	clientOpts := []api.Option{
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(o.logger),
	}
	if a.store != nil {
		a.jar, err = storage.NewJar(ctx, jar, a.store, cfg.BackendURL, o.logger)
		if err != nil {
			a.closeStore()
			return nil, err
		}
		clientOpts = append(clientOpts, api.WithCookieJar(a.jar))
	} else {
		clientOpts = append(clientOpts, api.WithCookieJar(jar))
	}
	if o.registry != nil {
		clientOpts = append(clientOpts, api.WithMetrics(metrics.NewAPIMetrics(o.registry)))
	}

	a.Client, err = api.New(cfg.BackendURL, clientOpts...)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.Session = auth.NewManager(a.Client, auth.NewStore(), o.logger)
	a.Client.SetUnauthorizedHandler(a.Session.HandleUnauthorized)
	if a.jar != nil {
		a.Session.Store().Subscribe(a.forgetOnSignOut())
	}
	a.Roster = roster.NewManager(a.Client, o.logger)
	return a, nil
}

// forgetOnSignOut drops the stored session when a signed-in user becomes
// anonymous, so a logout the backend never saw is not restored on restart.
func (a *App) forgetOnSignOut() func(auth.State) {
	var signedIn atomic.Bool
	return func(s auth.State) {
		was := signedIn.Swap(s == auth.StateAuthenticated)
		if !was || s != auth.StateAnonymous {
			return
		}
		if err := a.jar.Forget(context.Background()); err != nil {
			a.logger.Warn("Failed to forget session", "error", err)
		}
	}
}

// Google returns the federated login strategy.
func (a *App) Google() *auth.GoogleStrategy {
	return auth.NewGoogleStrategy(a.Client)
}

// Close releases the session store.
func (a *App) Close() error {
	return a.closeStore()
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("failed to close session store: %w", err)
	}
	return nil
}
