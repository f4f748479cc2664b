package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/auth"
	"github.com/vishal1807gupta/go-splitwise/internal/expense"
	"github.com/vishal1807gupta/go-splitwise/internal/gallery"
	"github.com/vishal1807gupta/go-splitwise/internal/history"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/refresh"
	"github.com/vishal1807gupta/go-splitwise/internal/roster"
	"github.com/vishal1807gupta/go-splitwise/internal/settlement"
)

// MsgLoginRequired is returned when a group is opened without a session.
const MsgLoginRequired = "Please log in to continue."

// View names one panel of a group page.
type View string

const (
	ViewSettlements View = "settlements"
	ViewExpenses    View = "expenses"
	ViewHistory     View = "history"
	ViewGallery     View = "gallery"
)

// GroupPage holds the views of one group for the current user. The members
// roster feeds the expense form and the balances; a successful expense or
// payment bumps Transactions, which re-fetches History.
type GroupPage struct {
	GroupID int64
	User    models.User

	Settlements *settlement.Reconciler
	Expenses    *expense.Form
	Ledger      *expense.Ledger
	History     *history.Viewer
	Gallery     *gallery.Gallery

	// Transactions is bumped whenever balances may have changed.
	Transactions *refresh.Counter

	roster *roster.Manager
	logger *slog.Logger
	unsub  func()

	mu      sync.Mutex
	members []models.User
	errs    map[View]error
	closed  bool
}

// OpenGroup loads a group page. It fails with KindUnauthorized unless a user
// is signed in, and the page closes itself when the session is lost. Only the
// member roster is required; a panel that fails to load is reported by Err
// and the page opens anyway.
func (a *App) OpenGroup(ctx context.Context, groupID int64) (*GroupPage, error) {
	store := a.Session.Store()
	user, ok := store.CurrentUser()
	if !ok || store.State() != auth.StateAuthenticated {
		return nil, apperrors.New(apperrors.KindUnauthorized, MsgLoginRequired)
	}

	members, err := a.Roster.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}

	counter := refresh.NewCounter()
	p := &GroupPage{
		GroupID:      groupID,
		User:         user,
		Transactions: counter,
		roster:       a.Roster,
		logger:       a.logger.With("component", "group_page", "group_id", groupID),
		members:      members,
		errs:         make(map[View]error),
	}
	p.Settlements = settlement.NewReconciler(a.Client, groupID, user.ID, members, counter, a.logger)
	p.Ledger = expense.NewLedger(a.Client, groupID, a.logger)
	p.History = history.NewViewer(a.Client, groupID, user.ID, members, counter, a.logger)
	p.Gallery = gallery.New(a.Client, groupID, a.logger)
	p.Expenses = expense.NewForm(a.Client, groupID, members,
		expense.WithLogger(a.logger),
		expense.WithOnAdded(p.expenseAdded),
	)
	p.History.Watch(context.WithoutCancel(ctx))
	p.unsub = store.Subscribe(func(s auth.State) {
		if s == auth.StateAnonymous {
			p.Close()
		}
	})

	if err := p.Refresh(ctx); err != nil {
		if p.Closed() {
			return nil, err
		}
		p.logger.Warn("Group opened with unavailable panels", "error", err)
	}
	p.logger.Info("Group opened", "user_id", user.ID, "members", len(members))
	return p, nil
}

// Members returns the current roster.
func (p *GroupPage) Members() []models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.User(nil), p.members...)
}

// Refresh re-fetches balances, expenses, history and memories. Each panel's
// outcome is kept for Err; the first failure is returned after every panel
// was attempted.
func (p *GroupPage) Refresh(ctx context.Context) error {
	var first error
	keep := func(v View, err error) {
		p.setErr(v, err)
		if err != nil && first == nil {
			first = err
		}
	}
	_, err := p.Settlements.Fetch(ctx)
	keep(ViewSettlements, err)
	_, err = p.Ledger.Fetch(ctx)
	keep(ViewExpenses, err)
	_, err = p.History.Fetch(ctx)
	keep(ViewHistory, err)
	_, err = p.Gallery.Fetch(ctx)
	keep(ViewGallery, err)
	return first
}

// Err returns the last load failure of a panel, or nil.
func (p *GroupPage) Err(v View) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs[v]
}

func (p *GroupPage) setErr(v View, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.errs, v)
		return
	}
	p.errs[v] = err
}

// Candidates lists users who can be added, filtered by query.
func (p *GroupPage) Candidates(ctx context.Context, query string) ([]models.User, error) {
	users, err := p.roster.Candidates(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}
	return roster.Filter(users, query), nil
}

// AddMembers adds the selected users, then hands the re-fetched roster to
// every roster-dependent view and reloads the balances.
func (p *GroupPage) AddMembers(ctx context.Context, sel *roster.Selection) error {
	members, err := p.roster.AddUsers(ctx, p.GroupID, sel.IDs())
	if err != nil {
		return err
	}
	sel.Clear()

	p.mu.Lock()
	p.members = members
	p.mu.Unlock()
	p.Expenses.SetRoster(members)
	p.Settlements.SetMembers(members)
	p.History.SetMembers(members)

	_, err = p.Settlements.Fetch(ctx)
	return err
}

func (p *GroupPage) expenseAdded(ctx context.Context, e *models.Expense) {
	if p.Closed() {
		return
	}
	_, err := p.Ledger.Fetch(ctx)
	p.setErr(ViewExpenses, err)
	if err != nil {
		p.logger.Warn("Failed to refresh expenses", "error", err)
	}
	_, err = p.Settlements.Fetch(ctx)
	p.setErr(ViewSettlements, err)
	if err != nil {
		p.logger.Warn("Failed to refresh balances", "error", err)
	}
	p.Transactions.Bump()
}

// Closed reports whether the page was dismissed.
func (p *GroupPage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close dismisses the page; responses still in flight are ignored.
func (p *GroupPage) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.Settlements.Close()
	p.Ledger.Close()
	p.History.Close()
	p.Gallery.Close()
	if p.unsub != nil {
		p.unsub()
	}
	p.logger.Debug("Group closed")
}
