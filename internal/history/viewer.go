// Package history lists a group's settle-up transactions from the current
// user's point of view.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/money"
	"github.com/vishal1807gupta/go-splitwise/internal/refresh"
)

const (
	MsgEmpty      = "No transactions yet"
	MsgLoadFailed = "Failed to load transactions. Please try again later."

	dateLayout = "Jan 2, 2006"
)

// Kind classifies a transaction relative to the current user.
type Kind int

const (
	KindYouPaid Kind = iota
	KindYouReceived
	KindOthers
)

// Line is one rendered transaction.
type Line struct {
	Transaction models.Transaction
	Kind        Kind
	Text        string
	Date        string
}

// Lister is the backend call a Viewer fetches through.
type Lister interface {
	Transactions(ctx context.Context, groupID int64) ([]models.Transaction, error)
}

// Viewer is the transaction history of one group.
type Viewer struct {
	client  Lister
	groupID int64
	userID  int64
	counter *refresh.Counter
	logger  *slog.Logger
	now     func() time.Time
	guard   refresh.Guard

	mu      sync.Mutex
	names   map[int64]string
	txs     []models.Transaction
	unsub   func()
	lastErr error
}

// NewViewer creates a viewer. counter is the shared "transactions changed"
// signal; Watch re-fetches on every bump.
func NewViewer(client Lister, groupID, userID int64, members []models.User, counter *refresh.Counter, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		client:  client,
		groupID: groupID,
		userID:  userID,
		counter: counter,
		logger:  logger.With("component", "history", "group_id", groupID),
		now:     time.Now,
		names:   models.UserNames(members),
	}
}

// SetMembers refreshes the id → name lookup.
func (v *Viewer) SetMembers(members []models.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.names = models.UserNames(members)
}

// Watch re-fetches with ctx whenever the counter is bumped, until Close.
func (v *Viewer) Watch(ctx context.Context) {
	if v.counter == nil {
		return
	}
	unsub := v.counter.Subscribe(func(uint64) {
		if !v.guard.Open() {
			return
		}
		if _, err := v.Fetch(ctx); err != nil {
			v.mu.Lock()
			v.lastErr = err
			v.mu.Unlock()
		}
	})
	v.mu.Lock()
	if v.unsub != nil {
		v.unsub()
	}
	v.unsub = unsub
	v.mu.Unlock()
}

// Err returns the error of the last counter-triggered fetch, if it failed.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Fetch reloads the history.
func (v *Viewer) Fetch(ctx context.Context) ([]Line, error) {
	ticket := v.guard.Begin()
	txs, err := v.client.Transactions(ctx, v.groupID)
	if err != nil {
		v.logger.Error("Failed to fetch transactions", "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgLoadFailed)
	}
	if v.guard.Accept(ticket) {
		v.mu.Lock()
		v.txs = txs
		v.lastErr = nil
		v.mu.Unlock()
	}
	return v.Lines(), nil
}

// Lines renders the last accepted history.
func (v *Viewer) Lines() []Line {
	v.mu.Lock()
	txs := v.txs
	v.mu.Unlock()

	now := v.now()
	lines := make([]Line, 0, len(txs))
	for _, tx := range txs {
		kind, text := v.Describe(tx)
		lines = append(lines, Line{Transaction: tx, Kind: kind, Text: text, Date: DateLabel(tx.CreatedAt, now)})
	}
	return lines
}

// Describe classifies tx and renders its sentence.
func (v *Viewer) Describe(tx models.Transaction) (Kind, string) {
	amount := money.Format(tx.Amount)
	switch {
	case tx.PayerID == v.userID:
		return KindYouPaid, fmt.Sprintf("You paid %s to %s", amount, v.name(tx.UserID))
	case tx.UserID == v.userID:
		return KindYouReceived, fmt.Sprintf("%s received from %s", amount, v.name(tx.PayerID))
	default:
		return KindOthers, fmt.Sprintf("%s paid %s to %s", v.name(tx.PayerID), amount, v.name(tx.UserID))
	}
}

func (v *Viewer) name(id int64) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.names[id]; ok {
		return n
	}
	return fmt.Sprintf("User %d", id)
}

// Close stops watching and ignores responses still in flight.
func (v *Viewer) Close() {
	v.guard.Close()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
}

// DateLabel buckets t by calendar day in now's location: "Today",
// "Yesterday", or a date such as "Mar 4, 2026".
func DateLabel(t, now time.Time) string {
	t = t.In(now.Location())
	y, m, d := t.Date()
	if ny, nm, nd := now.Date(); y == ny && m == nm && d == nd {
		return "Today"
	}
	if py, pm, pd := now.AddDate(0, 0, -1).Date(); y == py && m == pm && d == pd {
		return "Yesterday"
	}
	return t.Format(dateLayout)
}
