package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal1807gupta/go-splitwise/internal/apitest"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/auth"
	"github.com/vishal1807gupta/go-splitwise/internal/config"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/roster"
)

type world struct {
	backend *apitest.Backend
	cfg     *config.Config
	alice   models.User
	bob     models.User
	carol   models.User
	group   models.Group
}

func newWorld(t *testing.T) *world {
	t.Helper()
	backend := apitest.New(t)
	backend.RequireSession(true)
	w := &world{
		backend: backend,
		cfg: &config.Config{
			BackendURL:    backend.URL(),
			HTTPTimeout:   5 * time.Second,
			SessionDBPath: filepath.Join(t.TempDir(), "session.db"),
		},
		alice: backend.AddUser("Alice", "alice@example.com", "secret1"),
		bob:   backend.AddUser("Bob", "bob@example.com", "secret2"),
		carol: backend.AddUser("Carol", "carol@example.com", "secret3"),
	}
	w.group = backend.AddGroup("Trip", w.alice.ID, w.bob.ID)
	return w
}

func (w *world) open(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), w.cfg, WithMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func (w *world) login(t *testing.T, a *App) {
	t.Helper()
	_, err := a.Session.Login(context.Background(), w.alice.Email, "secret1", false)
	require.NoError(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), &config.Config{BackendURL: "localhost:4000", HTTPTimeout: time.Second})
	assert.Error(t, err)
}

func TestOpenGroupRequiresSession(t *testing.T) {
	w := newWorld(t)
	a := w.open(t)
	ctx := context.Background()

	_, ok := a.Session.CheckSession(ctx)
	require.False(t, ok)

	_, err := a.OpenGroup(ctx, w.group.GroupID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	assert.Zero(t, w.backend.Calls("group_users"))
}

func TestSessionSurvivesRestart(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first := w.open(t)
	w.login(t, first)
	require.NoError(t, first.Close())

	second := w.open(t)
	user, ok := second.Session.CheckSession(ctx)
	require.True(t, ok)
	assert.Equal(t, w.alice.ID, user.ID)

	require.NoError(t, second.Session.Logout(ctx))
	require.NoError(t, second.Close())

	third := w.open(t)
	_, ok = third.Session.CheckSession(ctx)
	assert.False(t, ok, "logout removes the stored session")
}

func TestFailedLogoutIsNotRestored(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first := w.open(t)
	w.login(t, first)
	w.backend.Fail("logout", http.StatusInternalServerError, "database unavailable")
	err := first.Session.Logout(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
	require.NoError(t, first.Close())

	second := w.open(t)
	_, ok := second.Session.CheckSession(ctx)
	assert.False(t, ok, "the backend session is still valid but the cookie is gone")
}

func TestUnreachableBackendKeepsStoredSession(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first := w.open(t)
	w.login(t, first)
	require.NoError(t, first.Close())

	w.backend.Fail("me", http.StatusServiceUnavailable, "maintenance")
	second := w.open(t)
	_, ok := second.Session.CheckSession(ctx)
	require.False(t, ok)
	require.NoError(t, second.Close())

	w.backend.Recover("me")
	third := w.open(t)
	_, ok = third.Session.CheckSession(ctx)
	assert.True(t, ok, "a failed startup check never signed anyone out")
}

func TestOpenGroupSurvivesPanelFailure(t *testing.T) {
	w := newWorld(t)
	w.backend.SetBalance(w.group.GroupID, w.alice.ID, w.bob.ID, -50)
	w.backend.Fail("memories", http.StatusInternalServerError, "r2 down")
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)
	defer page.Close()
	assert.False(t, page.Closed())

	assert.Equal(t, "You owe ₹50.00", page.Settlements.Summary())
	assert.NoError(t, page.Err(ViewSettlements))
	assert.NoError(t, page.Err(ViewExpenses))
	assert.NoError(t, page.Err(ViewHistory))
	require.Error(t, page.Err(ViewGallery))
	assert.True(t, apperrors.IsKind(page.Err(ViewGallery), apperrors.KindUnavailable))

	w.backend.Recover("memories")
	w.backend.AddMemory(w.group.GroupID, "beach.jpg")
	require.NoError(t, page.Refresh(ctx))
	assert.NoError(t, page.Err(ViewGallery))
	assert.Len(t, page.Gallery.Memories(), 1)
}

func TestGroupLogsTagGroupOnce(t *testing.T) {
	w := newWorld(t)
	w.backend.Fail("memories", http.StatusInternalServerError, "r2 down")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := New(context.Background(), w.cfg, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	w.login(t, a)

	page, err := a.OpenGroup(context.Background(), w.group.GroupID)
	require.NoError(t, err)
	page.Close()

	var tagged int
	for _, line := range strings.Split(buf.String(), "\n") {
		n := strings.Count(line, "group_id=")
		assert.LessOrEqual(t, n, 1, line)
		tagged += n
	}
	assert.Positive(t, tagged)
	assert.Contains(t, buf.String(), "component=group_page")
}

func TestOpenGroupFailsWithoutRoster(t *testing.T) {
	w := newWorld(t)
	w.backend.Fail("group_users", http.StatusInternalServerError, "boom")
	a := w.open(t)
	w.login(t, a)

	_, err := a.OpenGroup(context.Background(), w.group.GroupID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
}

func TestGroupPageSettleUpRefreshesHistory(t *testing.T) {
	w := newWorld(t)
	w.backend.SetBalance(w.group.GroupID, w.alice.ID, w.bob.ID, -50)
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)
	defer page.Close()

	require.True(t, page.Settlements.HasOpenBalances())
	assert.Equal(t, "You owe ₹50.00", page.Settlements.Summary())
	assert.Empty(t, page.History.Lines())

	pending, err := page.Settlements.Select(w.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), pending.Amount)
	require.NoError(t, page.Settlements.Confirm(ctx))

	assert.False(t, page.Settlements.HasOpenBalances())
	assert.Equal(t, uint64(1), page.Transactions.Value())
	lines := page.History.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "You paid ₹50.00 to Bob", lines[0].Text)
	assert.Equal(t, "Today", lines[0].Date)
	assert.NoError(t, page.History.Err())
}

func TestGroupPageExpenseRefreshesViews(t *testing.T) {
	w := newWorld(t)
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)
	defer page.Close()
	require.Empty(t, page.Ledger.Items())
	settlementCalls := w.backend.Calls("settlements")

	f := page.Expenses
	f.SetDescription("Dinner")
	f.SetAmount("100")
	f.SetPayer(w.alice.ID)
	f.SetType(models.ExpenseEqual)
	f.Toggle(w.alice.ID)
	f.Toggle(w.bob.ID)
	_, err = f.Submit(ctx)
	require.NoError(t, err)

	assert.Len(t, page.Ledger.Items(), 1)
	assert.Equal(t, settlementCalls+1, w.backend.Calls("settlements"))
	assert.Equal(t, uint64(1), page.Transactions.Value())
	assert.Equal(t, 2, w.backend.Calls("get_transactions"), "history re-fetched after the expense")
}

func TestGroupPageAddMembers(t *testing.T) {
	w := newWorld(t)
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)
	defer page.Close()
	require.Len(t, page.Members(), 2)

	candidates, err := page.Candidates(ctx, "car")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, w.carol.ID, candidates[0].ID)

	var sel roster.Selection
	assert.Error(t, page.AddMembers(ctx, &sel), "empty selection")

	sel.Toggle(w.carol.ID)
	require.NoError(t, page.AddMembers(ctx, &sel))
	assert.Len(t, page.Members(), 3)
	assert.Len(t, page.Expenses.Roster(), 3)
	assert.False(t, sel.CanSubmit(), "selection cleared")
	assert.Len(t, page.Settlements.Visible(), 0, "new member has no balance yet")

	var req struct {
		Users []int64 `json:"users"`
	}
	require.NoError(t, w.backend.LastBody("settlements", &req))
	assert.ElementsMatch(t, []int64{w.alice.ID, w.bob.ID, w.carol.ID}, req.Users)
}

func TestGroupPageClosesOnLogout(t *testing.T) {
	w := newWorld(t)
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)
	require.False(t, page.Closed())

	require.NoError(t, a.Session.Logout(ctx))
	assert.Equal(t, auth.StateAnonymous, a.Session.Store().State())
	assert.True(t, page.Closed())
}

func TestGroupPageClosesWhenSessionExpires(t *testing.T) {
	w := newWorld(t)
	a := w.open(t)
	w.login(t, a)
	ctx := context.Background()

	page, err := a.OpenGroup(ctx, w.group.GroupID)
	require.NoError(t, err)

	w.backend.ExpireSessions()
	err = page.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	assert.True(t, page.Closed())

	_, err = a.OpenGroup(ctx, w.group.GroupID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}
