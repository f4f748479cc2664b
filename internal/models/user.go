package models

// User represents a registered account as returned by the backend.
// It is immutable from the client's perspective once fetched.
type User struct {
	// ID is the backend-assigned identity key.
	ID int64 `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's login address (unique).
	Email string `json:"email"`
}

// UserNames builds an id → display name lookup for a roster.
func UserNames(users []User) map[int64]string {
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}
