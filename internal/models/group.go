package models

// Group represents a set of users sharing expenses.
// Groups are created from a name-only form bound to the creating user.
type Group struct {
	// GroupID is the backend-assigned identity key.
	GroupID int64 `json:"group_id"`

	// GroupName is the display name (e.g., "Goa Trip", "Flatmates").
	GroupName string `json:"group_name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// MemberCount is populated by some listing endpoints only.
	MemberCount int `json:"member_count,omitempty"`
}
