package expense

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// NoticeDuration is how long the standalone success notice stays visible.
const NoticeDuration = 5 * time.Second

// Creator is the backend call a Form submits through.
type Creator interface {
	AddExpense(ctx context.Context, groupID int64, expense models.NewExpense) (*models.Expense, error)
}

// Form is the view-model of the add-expense form. Share inputs are keyed by
// participant id.
type Form struct {
	client  Creator
	groupID int64
	logger  *slog.Logger
	onAdded func(context.Context, *models.Expense)
	now     func() time.Time

	mu          sync.Mutex
	roster      []models.User
	description string
	amount      string
	payerID     int64
	expenseType models.ExpenseType
	selected    map[int64]bool
	shares      map[int64]string
	submitting  bool
	noticeUntil time.Time
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithOnAdded registers fn to run after a successful submission instead of
// resetting the form and showing the success notice.
func WithOnAdded(fn func(context.Context, *models.Expense)) FormOption {
	return func(f *Form) {
		f.onAdded = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) FormOption {
	return func(f *Form) {
		f.logger = l
	}
}

// WithClock replaces time.Now for notice expiry.
func WithClock(now func() time.Time) FormOption {
	return func(f *Form) {
		f.now = now
	}
}

// NewForm creates an empty form for a group whose members are roster.
func NewForm(client Creator, groupID int64, roster []models.User, opts ...FormOption) *Form {
	f := &Form{
		client:   client,
		groupID:  groupID,
		logger:   slog.Default(),
		now:      time.Now,
		roster:   append([]models.User(nil), roster...),
		selected: make(map[int64]bool),
		shares:   make(map[int64]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "expense_form", "group_id", groupID)
	return f
}

// SetRoster replaces the member pool after a roster re-fetch. Selections and
// shares of users no longer in the group are dropped.
func (f *Form) SetRoster(roster []models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = append([]models.User(nil), roster...)
	for id := range f.selected {
		if !inRoster(id, f.roster) {
			delete(f.selected, id)
			delete(f.shares, id)
		}
	}
	if f.payerID != 0 && !inRoster(f.payerID, f.roster) {
		f.payerID = 0
	}
}

// Roster returns the payer/participant pool.
func (f *Form) Roster() []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.roster...)
}

// SetDescription sets the raw description input.
func (f *Form) SetDescription(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.description = s
}

// SetAmount sets the raw amount input; it is parsed on Build.
func (f *Form) SetAmount(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amount = s
}

// SetPayer selects who paid. 0 means nobody is selected.
func (f *Form) SetPayer(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payerID = id
}

// SetType selects the split policy.
func (f *Form) SetType(t models.ExpenseType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenseType = t
}

// Toggle selects or deselects a participant.
func (f *Form) Toggle(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected[userID] {
		delete(f.selected, userID)
		delete(f.shares, userID)
		return
	}
	f.selected[userID] = true
}

// SetShare records the share input of a participant.
func (f *Form) SetShare(userID int64, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares[userID] = value
}

// Share returns the current share input of a participant.
func (f *Form) Share(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shares[userID]
}

// Participants returns the selected ids in roster order.
func (f *Form) Participants() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participantsLocked()
}

func (f *Form) participantsLocked() []int64 {
	ids := make([]int64, 0, len(f.selected))
	for _, u := range f.roster {
		if f.selected[u.ID] {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Notice returns the success notice while it is visible.
func (f *Form) Notice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.now().Before(f.noticeUntil) {
		return MsgAdded
	}
	return ""
}

// Build validates the form and returns the request it would submit.
func (f *Form) Build() (models.NewExpense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildLocked()
}

func (f *Form) buildLocked() (models.NewExpense, error) {
	participants := f.participantsLocked()
	total, err := Validate(f.description, f.amount, f.payerID, f.expenseType, participants, f.roster)
	if err != nil {
		return models.NewExpense{}, err
	}

	names := models.UserNames(f.roster)
	inputs := make([]ShareInput, 0, len(participants))
	for _, id := range participants {
		inputs = append(inputs, ShareInput{UserID: id, Name: names[id], Value: f.shares[id]})
	}
	shares, err := ValidateShares(f.expenseType, total, inputs)
	if err != nil {
		return models.NewExpense{}, err
	}

	return models.NewExpense{
		Amount:      total,
		PayerID:     f.payerID,
		Description: strings.TrimSpace(f.description),
		ExpenseType: f.expenseType,
		Shares:      shares,
	}, nil
}

// Submit validates and posts the expense. A failure leaves every input in
// place for correction; a second call while one is in flight is rejected.
func (f *Form) Submit(ctx context.Context) (*models.Expense, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, apperrors.Busy()
	}
	req, err := f.buildLocked()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.submitting = true
	f.mu.Unlock()

	created, err := f.client.AddExpense(ctx, f.groupID, req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		f.logger.Error("Failed to add expense", "error", err)
		return nil, apperrors.FromResponse(err, api.StatusOf(err), MsgSubmitFailed)
	}
	onAdded := f.onAdded
	if onAdded == nil {
		f.resetLocked()
		f.noticeUntil = f.now().Add(NoticeDuration)
	}
	f.mu.Unlock()

	f.logger.Info("Expense added", "expense_id", created.ID, "amount", created.Amount, "type", req.ExpenseType)
	if onAdded != nil {
		onAdded(ctx, created)
	}
	return created, nil
}

// Reset clears description, amount, selections and shares.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.description = ""
	f.amount = ""
	f.selected = make(map[int64]bool)
	f.shares = make(map[int64]string)
}
