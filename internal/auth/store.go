// Package auth holds the current-user session state and the operations that
// change it: session check, login, registration, logout, password reset and
// federated login.
package auth

import (
	"sync"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// State is the session state.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Store holds the process-wide current user. Any component may read it;
// only a Manager writes it.
type Store struct {
	mu    sync.RWMutex
	state State
	user  *models.User
	ready chan struct{}

	subs map[int]func(State)
	next int
}

// NewStore returns a store in StateLoading.
func NewStore() *Store {
	return &Store{
		ready: make(chan struct{}),
		subs:  make(map[int]func(State)),
	}
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentUser returns the signed-in user.
func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Ready is closed once the store has left StateLoading.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe registers fn to run after every state change.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) signIn(user models.User) {
	s.transition(StateAuthenticated, &user)
}

func (s *Store) signOut() {
	s.transition(StateAnonymous, nil)
}

func (s *Store) transition(state State, user *models.User) {
	s.mu.Lock()
	was := s.state
	s.state = state
	s.user = user
	if was == StateLoading {
		close(s.ready)
	}
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
