package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// TransactionRequest is the body of POST /api/insertTransactions/:groupId.
type TransactionRequest struct {
	PayerID int64 `json:"payer_id"`
	UserID  int64 `json:"user_id"`
	Amount  int64 `json:"amount"`
}

// Settlements returns the net balance between userID and each of members.
// The member list restricts the computation to current membership.
func (c *Client) Settlements(ctx context.Context, groupID, userID int64, members []int64) ([]models.Settlement, error) {
	if members == nil {
		members = []int64{}
	}
	cl, err := c.jsonCall("settlements", http.MethodPost, fmt.Sprintf("/api/settlements/%d/%d", groupID, userID),
		map[string][]int64{"users": members})
	if err != nil {
		return nil, err
	}
	var settlements []models.Settlement
	if err := c.do(ctx, cl, &settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

// InsertTransaction records a settle-up payment.
func (c *Client) InsertTransaction(ctx context.Context, groupID int64, tx TransactionRequest) error {
	cl, err := c.jsonCall("insert_transactions", http.MethodPost, fmt.Sprintf("/api/insertTransactions/%d", groupID), tx)
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

// Transactions lists the settle-up records of a group, newest first.
func (c *Client) Transactions(ctx context.Context, groupID int64) ([]models.Transaction, error) {
	cl := call{endpoint: "get_transactions", method: http.MethodGet, path: fmt.Sprintf("/api/getTransactions/%d", groupID)}
	var txs []models.Transaction
	if err := c.do(ctx, cl, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
