package models

import "time"

// Settlement is the net balance between the current user and one other member,
// recomputed by the backend from expenses and prior transactions on every fetch.
// It is never persisted as an entity.
type Settlement struct {
	// UserID is the other member.
	UserID int64 `json:"user_id"`

	// ShareAmount is signed from the current user's point of view:
	// positive means UserID owes the current user, negative means the
	// current user owes UserID, zero means the pair is settled.
	ShareAmount int64 `json:"share_amount"`
}

// Transaction is an explicit settle-up record. Recorded, never mutated.
type Transaction struct {
	ID int64 `json:"id"`

	// PayerID is the member who paid.
	PayerID int64 `json:"payer_id"`

	// UserID is the member who received the payment.
	UserID int64 `json:"user_id"`

	GroupID int64 `json:"group_id,omitempty"`

	// Amount is always positive.
	Amount int64 `json:"amount"`

	CreatedAt time.Time `json:"created_at"`
}
