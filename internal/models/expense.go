package models

// ExpenseType selects how an expense is distributed among participants.
type ExpenseType string

const (
	// ExpenseEqual splits the amount equally; the backend distributes shares.
	ExpenseEqual ExpenseType = "EQUAL"

	// ExpenseExact takes one absolute share per participant; shares sum to the amount.
	ExpenseExact ExpenseType = "EXACT"

	// ExpensePercentage takes one percentage per participant; shares sum to 100.
	ExpensePercentage ExpenseType = "PERCENTAGE"
)

// Valid reports whether t is one of the known split policies.
func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseEqual, ExpenseExact, ExpensePercentage:
		return true
	default:
		return false
	}
}

// UserShare is one participant's part of an expense.
// In requests it carries the entered share (amount or percentage); in
// responses it carries the signed balance effect (positive = credit).
type UserShare struct {
	UserID      int64 `json:"user_id"`
	ShareAmount int64 `json:"share_amount"`
}

// Expense (an "item" in the backend's vocabulary) is one logged shared cost.
type Expense struct {
	ID int64 `json:"expense_id"`

	// Amount is the positive total in integer currency units.
	Amount int64 `json:"amount"`

	// PayerID is the single member who paid.
	PayerID int64 `json:"payer_id"`

	Description string `json:"description"`

	ExpenseType ExpenseType `json:"expense_type"`

	// Date is the backend's creation timestamp, passed through as text.
	Date string `json:"date,omitempty"`

	Shares []UserShare `json:"user_shares"`
}

// NewExpense is the body of an expense-creation request.
type NewExpense struct {
	Amount      int64       `json:"amount"`
	PayerID     int64       `json:"payer_id"`
	Description string      `json:"description"`
	ExpenseType ExpenseType `json:"expense_type"`
	Shares      []UserShare `json:"user_shares"`
}
