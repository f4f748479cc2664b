package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/money"
	"github.com/vishal1807gupta/go-splitwise/internal/refresh"
)

const MsgLoadFailed = "Failed to load expenses. Please try again later."

// Lister is the backend call a Ledger fetches through.
type Lister interface {
	Items(ctx context.Context, groupID int64) ([]models.Expense, error)
}

// Ledger is the expense list of one group. It is re-fetched after every known
// mutation rather than patched locally.
type Ledger struct {
	client  Lister
	groupID int64
	logger  *slog.Logger
	guard   refresh.Guard

	mu    sync.Mutex
	items []models.Expense
}

// NewLedger creates an empty ledger for a group.
func NewLedger(client Lister, groupID int64, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		client:  client,
		groupID: groupID,
		logger:  logger.With("component", "expense_ledger", "group_id", groupID),
	}
}

// Fetch reloads the list. Responses superseded by a later Fetch, or arriving
// after Close, are discarded.
func (l *Ledger) Fetch(ctx context.Context) ([]models.Expense, error) {
	ticket := l.guard.Begin()
	items, err := l.client.Items(ctx, l.groupID)
	if err != nil {
		l.logger.Error("Failed to fetch expenses", "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgLoadFailed)
	}
	if !l.guard.Accept(ticket) {
		return l.Items(), nil
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return items, nil
}

// Items returns the last accepted list.
func (l *Ledger) Items() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Expense(nil), l.items...)
}

// Close stops the ledger from applying further responses.
func (l *Ledger) Close() {
	l.guard.Close()
}

// ShareLine renders one share of an expense, e.g. "Alice: +60.00".
func ShareLine(share models.UserShare, names map[int64]string) string {
	name, ok := names[share.UserID]
	if !ok {
		name = fmt.Sprintf("User %d", share.UserID)
	}
	return name + ": " + money.FormatSigned(share.ShareAmount)
}
