package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// Groups lists the groups userID belongs to.
func (c *Client) Groups(ctx context.Context, userID int64) ([]models.Group, error) {
	cl := call{endpoint: "group_details", method: http.MethodGet, path: fmt.Sprintf("/api/groupdetails/%d", userID)}
	var groups []models.Group
	if err := c.do(ctx, cl, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group owned by userID.
func (c *Client) CreateGroup(ctx context.Context, userID int64, name string) (*models.Group, error) {
	cl, err := c.jsonCall("create_group", http.MethodPost, fmt.Sprintf("/api/creategroup/%d", userID),
		map[string]string{"group_name": name})
	if err != nil {
		return nil, err
	}
	var group models.Group
	if err := c.do(ctx, cl, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GroupUsers lists the members of a group.
func (c *Client) GroupUsers(ctx context.Context, groupID int64) ([]models.User, error) {
	return c.users(ctx, "group_users", fmt.Sprintf("/api/groupUsers/%d", groupID))
}

// NotGroupUsers lists users who are not yet members of a group.
func (c *Client) NotGroupUsers(ctx context.Context, groupID int64) ([]models.User, error) {
	return c.users(ctx, "not_group_users", fmt.Sprintf("/api/notGroupUsers/%d", groupID))
}

func (c *Client) users(ctx context.Context, endpoint, path string) ([]models.User, error) {
	cl := call{endpoint: endpoint, method: http.MethodGet, path: path}
	var users []models.User
	if err := c.do(ctx, cl, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddUsersToGroup adds userIDs to a group.
func (c *Client) AddUsersToGroup(ctx context.Context, groupID int64, userIDs []int64) error {
	cl, err := c.jsonCall("add_users_to_group", http.MethodPost, fmt.Sprintf("/api/addUsersToGroup/%d", groupID),
		map[string][]int64{"user_ids": userIDs})
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}
