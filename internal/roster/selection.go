package roster

import (
	"fmt"
	"sync"
)

// Selection is the checked state of the add-members picker.
type Selection struct {
	mu    sync.Mutex
	order []int64
}

// Toggle checks or unchecks a user.
func (s *Selection) Toggle(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
	s.order = append(s.order, userID)
}

// Selected reports whether a user is checked.
func (s *Selection) Selected(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if id == userID {
			return true
		}
	}
	return false
}

// IDs returns the checked users in the order they were checked.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.order...)
}

// CanSubmit is false while nothing is checked.
func (s *Selection) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) > 0
}

// Count renders "1 user selected" / "3 users selected".
func (s *Selection) Count() string {
	s.mu.Lock()
	n := len(s.order)
	s.mu.Unlock()
	if n == 1 {
		return "1 user selected"
	}
	return fmt.Sprintf("%d users selected", n)
}

// Clear unchecks everyone.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
}
