package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apitest"
	"github.com/vishal1807gupta/go-splitwise/internal/storage"
	"github.com/vishal1807gupta/go-splitwise/internal/storage/sqlite"
)

func newClient(t *testing.T, backendURL string, store storage.Store) (*api.Client, *storage.Jar) {
	t.Helper()
	inner, err := api.NewCookieJar()
	require.NoError(t, err)
	jar, err := storage.NewJar(context.Background(), inner, store, backendURL, nil)
	require.NoError(t, err)
	client, err := api.New(backendURL, api.WithCookieJar(jar))
	require.NoError(t, err)
	return client, jar
}

func TestSessionSurvivesRestart(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.com", "secret1")
	store, err := sqlite.New(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	first, _ := newClient(t, backend.URL(), store)
	_, err = first.Login(ctx, api.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	second, _ := newClient(t, backend.URL(), store)
	me, err := second.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)

	require.NoError(t, second.Logout(ctx))
	cookies, err := store.LoadCookies(ctx, backend.URL())
	require.NoError(t, err)
	assert.Empty(t, cookies)

	third, _ := newClient(t, backend.URL(), store)
	_, err = third.Me(ctx)
	assert.True(t, api.IsUnauthorized(err))
}

func TestForget(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser("Alice", "alice@example.com", "secret1")
	store, err := sqlite.New(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	client, jar := newClient(t, backend.URL(), store)
	_, err = client.Login(ctx, api.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, jar.Forget(ctx))
	cookies, err := store.LoadCookies(ctx, backend.URL())
	require.NoError(t, err)
	assert.Empty(t, cookies)

	backend.RequireSession(true)
	_, err = client.Me(ctx)
	assert.True(t, api.IsUnauthorized(err), "the running client no longer sends the cookie")
}
