// Package roster manages groups and their membership: the groups list, the
// member roster that feeds expenses and balances, and the add-members flow.
package roster

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

const minGroupNameLength = 3

// User-facing messages.
const (
	MsgGroupNameTooShort = "Group name must be at least 3 characters long."
	MsgGroupsFailed      = "Failed to load your groups. Please try again later."
	MsgCreateFailed      = "Failed to create the group. Please try again."
	MsgMembersFailed     = "Failed to load group members. Please try again later."
	MsgCandidatesFailed  = "Failed to load users. Please try again later."
	MsgNoSelection       = "Please select at least one user to add."
	MsgAddFailed         = "Failed to add users to the group. Please try again."
)

// Client is the subset of the backend API the roster calls.
type Client interface {
	Groups(ctx context.Context, userID int64) ([]models.Group, error)
	CreateGroup(ctx context.Context, userID int64, name string) (*models.Group, error)
	GroupUsers(ctx context.Context, groupID int64) ([]models.User, error)
	NotGroupUsers(ctx context.Context, groupID int64) ([]models.User, error)
	AddUsersToGroup(ctx context.Context, groupID int64, userIDs []int64) error
}

// Manager performs roster operations against the backend.
type Manager struct {
	client Client
	logger *slog.Logger
}

// NewManager creates a roster manager.
func NewManager(client Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{client: client, logger: logger.With("component", "roster")}
}

// Groups lists the groups userID belongs to.
func (m *Manager) Groups(ctx context.Context, userID int64) ([]models.Group, error) {
	groups, err := m.client.Groups(ctx, userID)
	if err != nil {
		m.logger.Error("Failed to fetch groups", "user_id", userID, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgGroupsFailed)
	}
	return groups, nil
}

// CreateGroup creates a group owned by userID.
func (m *Manager) CreateGroup(ctx context.Context, userID int64, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minGroupNameLength {
		return nil, apperrors.Validation("group_name", MsgGroupNameTooShort)
	}
	group, err := m.client.CreateGroup(ctx, userID, name)
	if err != nil {
		m.logger.Error("Failed to create group", "user_id", userID, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgCreateFailed)
	}
	m.logger.Info("Group created", "group_id", group.GroupID, "user_id", userID)
	return group, nil
}

// Members lists the members of a group.
func (m *Manager) Members(ctx context.Context, groupID int64) ([]models.User, error) {
	users, err := m.client.GroupUsers(ctx, groupID)
	if err != nil {
		m.logger.Error("Failed to fetch group members", "group_id", groupID, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgMembersFailed)
	}
	return users, nil
}

// Candidates lists the users who are not members of a group yet.
func (m *Manager) Candidates(ctx context.Context, groupID int64) ([]models.User, error) {
	users, err := m.client.NotGroupUsers(ctx, groupID)
	if err != nil {
		m.logger.Error("Failed to fetch candidate users", "group_id", groupID, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgCandidatesFailed)
	}
	return users, nil
}

// AddUsers adds userIDs to a group and returns the re-fetched member roster.
func (m *Manager) AddUsers(ctx context.Context, groupID int64, userIDs []int64) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, apperrors.Validation("user_ids", MsgNoSelection)
	}
	if err := m.client.AddUsersToGroup(ctx, groupID, userIDs); err != nil {
		m.logger.Error("Failed to add users to group", "group_id", groupID, "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgAddFailed)
	}
	m.logger.Info("Users added to group", "group_id", groupID, "count", len(userIDs))
	return m.Members(ctx, groupID)
}

// Filter keeps the users whose name or email contains query, ignoring case.
// An empty query keeps everyone.
func Filter(users []models.User, query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
