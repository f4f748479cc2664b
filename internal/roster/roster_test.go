package roster

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apitest"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

func ids(users []models.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func newManager(t *testing.T) (*Manager, *apitest.Backend) {
	t.Helper()
	backend := apitest.New(t)
	client, err := api.New(backend.URL())
	require.NoError(t, err)
	return NewManager(client, nil), backend
}

func TestMembersAndAddUsers(t *testing.T) {
	m, backend := newManager(t)
	alice := backend.AddUser("Alice", "alice@example.com", "secret1")
	bob := backend.AddUser("Bob", "bob@example.com", "secret1")
	cara := backend.AddUser("Cara", "cara@example.com", "secret1")
	g := backend.AddGroup("Trip", alice.ID)
	ctx := context.Background()

	first, err := m.Members(ctx, g.GroupID)
	require.NoError(t, err)
	second, err := m.Members(ctx, g.GroupID)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(first), ids(second))

	candidates, err := m.Candidates(ctx, g.GroupID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{bob.ID, cara.ID}, ids(candidates))

	members, err := m.AddUsers(ctx, g.GroupID, []int64{bob.ID, cara.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID, cara.ID}, ids(members))
	assert.Equal(t, 3, backend.Calls("group_users"), "roster is re-fetched after adding")

	var body struct {
		UserIDs []int64 `json:"user_ids"`
	}
	require.NoError(t, backend.LastBody("add_users_to_group", &body))
	assert.Equal(t, []int64{bob.ID, cara.ID}, body.UserIDs)
}

func TestAddUsersRejectsEmptySelection(t *testing.T) {
	m, backend := newManager(t)

	_, err := m.AddUsers(context.Background(), 1, nil)
	assert.Equal(t, MsgNoSelection, apperrors.Message(err))
	assert.Equal(t, 0, backend.Calls("add_users_to_group"))
}

func TestGroupsAndCreate(t *testing.T) {
	m, backend := newManager(t)
	alice := backend.AddUser("Alice", "alice@example.com", "secret1")
	ctx := context.Background()

	_, err := m.CreateGroup(ctx, alice.ID, " ab ")
	assert.Equal(t, MsgGroupNameTooShort, apperrors.Message(err))

	g, err := m.CreateGroup(ctx, alice.ID, "  Goa trip ")
	require.NoError(t, err)
	assert.Equal(t, "Goa trip", g.GroupName)

	groups, err := m.Groups(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g.GroupID, groups[0].GroupID)
	assert.Equal(t, 1, groups[0].MemberCount)
}

func TestFetchFailureIsMapped(t *testing.T) {
	m, backend := newManager(t)
	backend.Fail("group_users", http.StatusInternalServerError, "down")

	_, err := m.Members(context.Background(), 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
	assert.Equal(t, MsgMembersFailed, apperrors.Message(err))

	backend.Fail("group_users", http.StatusUnauthorized, "expired")
	_, err = m.Members(context.Background(), 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestFilter(t *testing.T) {
	users := []models.User{
		{ID: 1, Name: "Alice Smith", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@work.io"},
		{ID: 3, Name: "Cara", Email: "cara@EXAMPLE.com"},
	}

	assert.Equal(t, []int64{1, 3}, ids(Filter(users, "Example")))
	assert.Equal(t, []int64{1}, ids(Filter(users, "SMITH")))
	assert.Equal(t, []int64{1, 2, 3}, ids(Filter(users, "  ")))
	assert.Empty(t, Filter(users, "zed"))
}

func TestSelection(t *testing.T) {
	var s Selection
	assert.False(t, s.CanSubmit())
	assert.Equal(t, "0 users selected", s.Count())

	s.Toggle(4)
	assert.Equal(t, "1 user selected", s.Count())
	s.Toggle(2)
	s.Toggle(4)
	s.Toggle(7)
	assert.Equal(t, []int64{2, 7}, s.IDs())
	assert.True(t, s.Selected(7))
	assert.False(t, s.Selected(4))
	assert.True(t, s.CanSubmit())

	s.Clear()
	assert.False(t, s.CanSubmit())
}
