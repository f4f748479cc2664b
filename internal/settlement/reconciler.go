// Package settlement shows the net balances between the current user and the
// other members of a group and records settle-up payments.
package settlement

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

// User-facing messages.
const (
	MsgAllSettled     = "All balances are settled in this group"
	MsgLoadFailed     = "Failed to load balances. Please try again later."
	MsgSettleFailed   = "Failed to record the payment. Please try again."
	MsgNothingPending = "Please choose a balance to settle first."
	MsgNotPayable     = "Only balances you owe can be settled from here."
)

// Client is the subset of the backend API the reconciler calls.
type Client interface {
	Settlements(ctx context.Context, groupID, userID int64, members []int64) ([]models.Settlement, error)
	InsertTransaction(ctx context.Context, groupID int64, tx api.TransactionRequest) error
}

// Entry is one non-zero balance with another member.
type Entry struct {
	UserID int64
	Name   string

	// Amount is signed: positive when the member owes the current user.
	Amount int64
}

// Payable reports whether the current user owes this member.
func (e Entry) Payable() bool {
	return e.Amount < 0
}

// Label is "Bob owes you" or "You owe Bob".
func (e Entry) Label() string {
	if e.Payable() {
		return "You owe " + e.Name
	}
	return e.Name + " owes you"
}

// Action is the settle-up button text for payable entries, e.g. "Pay ₹50.00".
func (e Entry) Action() string {
	if !e.Payable() {
		return ""
	}
	return "Pay " + money.Format(e.Amount)
}

// Pending is a settle-up awaiting explicit confirmation.
type Pending struct {
	TargetUserID int64
	Amount       int64
}

// Reconciler is the balances panel of one group for one user.
type Reconciler struct {
	client  Client
	groupID int64
	userID  int64
	counter *refresh.Counter
	logger  *slog.Logger
	guard   refresh.Guard

	mu          sync.Mutex
	members     []models.User
	settlements []models.Settlement
	pending     *Pending
	inFlight    map[int64]bool
}

// NewReconciler creates a reconciler. counter is bumped after every recorded
// payment so transaction views re-fetch; it may be nil.
func NewReconciler(client Client, groupID, userID int64, members []models.User, counter *refresh.Counter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		client:   client,
		groupID:  groupID,
		userID:   userID,
		counter:  counter,
		logger:   logger.With("component", "settlement", "group_id", groupID),
		members:  append([]models.User(nil), members...),
		inFlight: make(map[int64]bool),
	}
}

// SetMembers replaces the roster used for the next Fetch and for names.
func (r *Reconciler) SetMembers(members []models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append([]models.User(nil), members...)
}

// Fetch loads fresh balances for the whole current roster. A response older
// than the latest Fetch, or arriving after Close, is dropped.
func (r *Reconciler) Fetch(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.members))
	for _, m := range r.members {
		ids = append(ids, m.ID)
	}
	r.mu.Unlock()

	ticket := r.guard.Begin()
	settlements, err := r.client.Settlements(ctx, r.groupID, r.userID, ids)
	if err != nil {
		r.logger.Error("Failed to fetch settlements", "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgLoadFailed)
	}
	if !r.guard.Accept(ticket) {
		r.logger.Debug("Dropped stale settlements response", "ticket", ticket)
		return r.Visible(), nil
	}

	r.mu.Lock()
	r.settlements = settlements
	r.mu.Unlock()
	return r.Visible(), nil
}

// Visible returns the entries with a non-zero balance.
func (r *Reconciler) Visible() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visibleLocked()
}

func (r *Reconciler) visibleLocked() []Entry {
	names := models.UserNames(r.members)
	entries := make([]Entry, 0, len(r.settlements))
	for _, s := range r.settlements {
		if s.ShareAmount == 0 {
			continue
		}
		name, ok := names[s.UserID]
		if !ok {
			name = fmt.Sprintf("User %d", s.UserID)
		}
		entries = append(entries, Entry{UserID: s.UserID, Name: name, Amount: s.ShareAmount})
	}
	return entries
}

// HasOpenBalances reports whether any balance is non-zero.
func (r *Reconciler) HasOpenBalances() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.settlements {
		if s.ShareAmount != 0 {
			return true
		}
	}
	return false
}

// Total is the sum of every balance, zero entries included.
func (r *Reconciler) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, s := range r.settlements {
		total += s.ShareAmount
	}
	return total
}

// Summary renders the headline of the panel.
func (r *Reconciler) Summary() string {
	if !r.HasOpenBalances() {
		return MsgAllSettled
	}
	total := r.Total()
	if total >= 0 {
		return "You are owed " + money.Format(total)
	}
	return "You owe " + money.Format(total)
}

// Select holds a settle-up for target pending confirmation. Only balances
// the current user owes can be selected.
func (r *Reconciler) Select(targetUserID int64) (Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.visibleLocked() {
		if e.UserID != targetUserID {
			continue
		}
		if !e.Payable() {
			break
		}
		p := Pending{TargetUserID: targetUserID, Amount: -e.Amount}
		r.pending = &p
		return p, nil
	}
	return Pending{}, apperrors.Validation("target", MsgNotPayable)
}

// Pending returns the selection awaiting confirmation.
func (r *Reconciler) Pending() (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Pending{}, false
	}
	return *r.pending, true
}

// Cancel discards the pending selection.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// InFlight reports whether a payment to target is being recorded.
func (r *Reconciler) InFlight(targetUserID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[targetUserID]
}

// Confirm records the pending payment. On success the balances are
// re-fetched and the shared counter is bumped; on failure nothing changes.
// Payments to other members may be confirmed while one is in flight.
func (r *Reconciler) Confirm(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == nil {
		r.mu.Unlock()
		return apperrors.Validation("target", MsgNothingPending)
	}
	p := *r.pending
	if r.inFlight[p.TargetUserID] {
		r.mu.Unlock()
		return apperrors.Busy()
	}
	r.inFlight[p.TargetUserID] = true
	r.mu.Unlock()

	err := r.client.InsertTransaction(ctx, r.groupID, api.TransactionRequest{
		PayerID: r.userID,
		UserID:  p.TargetUserID,
		Amount:  p.Amount,
	})

	r.mu.Lock()
	delete(r.inFlight, p.TargetUserID)
	if err == nil && r.pending != nil && *r.pending == p {
		r.pending = nil
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Failed to record settlement", "target_user_id", p.TargetUserID, "error", err)
		return apperrors.FromResponse(err, api.StatusOf(err), MsgSettleFailed)
	}
	r.logger.Info("Settlement recorded", "target_user_id", p.TargetUserID, "amount", p.Amount)

	if _, err := r.Fetch(ctx); err != nil {
		r.logger.Warn("Failed to refresh settlements after payment", "error", err)
	}
	if r.counter != nil {
		r.counter.Bump()
	}
	return nil
}

// Close stops the reconciler from applying further responses.
func (r *Reconciler) Close() {
	r.guard.Close()
}
