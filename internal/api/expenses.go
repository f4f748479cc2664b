package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// AddExpense logs a shared expense in a group.
func (c *Client) AddExpense(ctx context.Context, groupID int64, expense models.NewExpense) (*models.Expense, error) {
	cl, err := c.jsonCall("add_expense", http.MethodPost, fmt.Sprintf("/api/addExpense/%d", groupID), expense)
	if err != nil {
		return nil, err
	}
	var created models.Expense
	if err := c.do(ctx, cl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Items lists the expenses of a group.
func (c *Client) Items(ctx context.Context, groupID int64) ([]models.Expense, error) {
	cl := call{endpoint: "items", method: http.MethodGet, path: fmt.Sprintf("/api/items/%d", groupID)}
	var items []models.Expense
	if err := c.do(ctx, cl, &items); err != nil {
		return nil, err
	}
	return items, nil
}
