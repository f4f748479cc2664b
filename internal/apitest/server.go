// Package apitest provides an in-memory backend implementing the REST contract
// the client talks to, for use in tests across packages.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session_token"

// ResetCode is the verification code accepted by the password reset endpoints.
const ResetCode = "123456"

type account struct {
	user     models.User
	password string
}

type failure struct {
	status  int
	message string
}

// Backend is a fake go-splitwise backend. All methods are safe for concurrent use.
type Backend struct {
	Server *httptest.Server

	// Now stamps new transactions. Defaults to time.Now.
	Now func() time.Time

	mu             sync.Mutex
	requireSession bool
	nextID         int64
	accounts       map[int64]*account
	sessions       map[string]int64
	groups         map[int64]models.Group
	members        map[int64][]int64
	expenses       map[int64][]models.Expense
	settlements    map[int64]map[int64]map[int64]int64 // group → viewer → other → amount
	transactions   map[int64][]models.Transaction
	memories       map[int64][]models.Memory
	failures       map[string]failure
	calls          map[string]int
	bodies         map[string][]byte
	block          map[string]chan struct{}
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Now:          time.Now,
		nextID:       100,
		accounts:     make(map[int64]*account),
		sessions:     make(map[string]int64),
		groups:       make(map[int64]models.Group),
		members:      make(map[int64][]int64),
		expenses:     make(map[int64][]models.Expense),
		settlements:  make(map[int64]map[int64]map[int64]int64),
		transactions: make(map[int64][]models.Transaction),
		memories:     make(map[int64][]models.Memory),
		failures:     make(map[string]failure),
		calls:        make(map[string]int),
		bodies:       make(map[string][]byte),
		block:        make(map[string]chan struct{}),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend origin.
func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.record)

	r.HandleFunc("/api/me", b.me).Methods("GET").Name("me")
	r.HandleFunc("/api/login", b.login).Methods("POST").Name("login")
	r.HandleFunc("/api/register", b.register).Methods("POST").Name("register")
	r.HandleFunc("/api/logout", b.logout).Methods("POST").Name("logout")
	r.HandleFunc("/api/auth/google", b.google).Methods("POST").Name("auth_google")
	r.HandleFunc("/api/auth/request-password-reset", b.requestReset).Methods("POST").Name("request_password_reset")
	r.HandleFunc("/api/auth/reset-password-complete", b.completeReset).Methods("POST").Name("reset_password_complete")
	r.HandleFunc("/api/update-password", b.updatePassword).Methods("POST").Name("update_password")

	r.HandleFunc("/api/groupdetails/{userId}", b.protected(b.groupDetails)).Methods("GET").Name("group_details")
	r.HandleFunc("/api/creategroup/{userId}", b.protected(b.createGroup)).Methods("POST").Name("create_group")
	r.HandleFunc("/api/groupUsers/{groupId}", b.protected(b.groupUsers)).Methods("GET").Name("group_users")
	r.HandleFunc("/api/notGroupUsers/{groupId}", b.protected(b.notGroupUsers)).Methods("GET").Name("not_group_users")
	r.HandleFunc("/api/addUsersToGroup/{groupId}", b.protected(b.addUsers)).Methods("POST").Name("add_users_to_group")
	r.HandleFunc("/api/addExpense/{groupId}", b.protected(b.addExpense)).Methods("POST").Name("add_expense")
	r.HandleFunc("/api/items/{groupId}", b.protected(b.items)).Methods("GET").Name("items")
	r.HandleFunc("/api/settlements/{groupId}/{userId}", b.protected(b.getSettlements)).Methods("POST").Name("settlements")
	r.HandleFunc("/api/insertTransactions/{groupId}", b.protected(b.insertTransaction)).Methods("POST").Name("insert_transactions")
	r.HandleFunc("/api/getTransactions/{groupId}", b.protected(b.getTransactions)).Methods("GET").Name("get_transactions")
	r.HandleFunc("/api/memories/upload", b.protected(b.uploadMemory)).Methods("POST").Name("memories_upload")
	r.HandleFunc("/api/memories/{groupId}", b.protected(b.listMemories)).Methods("GET").Name("memories")
	r.HandleFunc("/api/memories/{memoryId}", b.protected(b.deleteMemory)).Methods("DELETE").Name("memories_delete")
	return r
}

// record counts calls, keeps the last body, applies injected failures and blocks.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.calls[name]++
		b.bodies[name] = body
		f, failing := b.failures[name]
		gate := b.block[name]
		b.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if failing {
			writeError(w, f.message, f.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) protected(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		required := b.requireSession
		b.mu.Unlock()
		if required {
			if _, ok := b.sessionUser(r); !ok {
				writeError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
		}
		h(w, r)
	}
}

// RequireSession makes group, expense, settlement, transaction and memory
// routes answer 401 unless a valid session cookie is presented.
func (b *Backend) RequireSession(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requireSession = on
}

// Fail makes every call to route answer status with message until Recover.
// Route names match the client's endpoint labels (e.g. "login", "settlements").
func (b *Backend) Fail(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, message: message}
}

// Recover removes an injected failure.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// Block holds every call to route until the returned release func runs.
func (b *Backend) Block(route string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.block[route] = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.block, route)
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many requests route received.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastBody decodes the last request body route received into v.
func (b *Backend) LastBody(route string, v any) error {
	b.mu.Lock()
	body := b.bodies[route]
	b.mu.Unlock()
	return json.Unmarshal(body, v)
}

// LastRawBody returns the last request body route received.
func (b *Backend) LastRawBody(route string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.bodies[route]...)
}

// AddUser creates an account and returns it.
func (b *Backend) AddUser(name, email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password)
}

func (b *Backend) addUserLocked(name, email, password string) models.User {
	b.nextID++
	u := models.User{ID: b.nextID, Name: name, Email: email}
	b.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// AddGroup creates a group with the given members.
func (b *Backend) AddGroup(name string, memberIDs ...int64) models.Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	g := models.Group{GroupID: b.nextID, GroupName: name}
	b.groups[g.GroupID] = g
	b.members[g.GroupID] = append([]int64(nil), memberIDs...)
	return g
}

// SetBalance sets the net balance between viewer and other in a group,
// from viewer's perspective, and mirrors it for other.
func (b *Backend) SetBalance(groupID, viewer, other, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setBalanceLocked(groupID, viewer, other, amount)
}

func (b *Backend) setBalanceLocked(groupID, viewer, other, amount int64) {
	g := b.settlements[groupID]
	if g == nil {
		g = make(map[int64]map[int64]int64)
		b.settlements[groupID] = g
	}
	if g[viewer] == nil {
		g[viewer] = make(map[int64]int64)
	}
	if g[other] == nil {
		g[other] = make(map[int64]int64)
	}
	g[viewer][other] = amount
	g[other][viewer] = -amount
}

// AddTransaction records a settle-up directly.
func (b *Backend) AddTransaction(groupID, payerID, userID, amount int64, at time.Time) models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	tx := models.Transaction{ID: b.nextID, PayerID: payerID, UserID: userID, GroupID: groupID, Amount: amount, CreatedAt: at}
	b.transactions[groupID] = append([]models.Transaction{tx}, b.transactions[groupID]...)
	return tx
}

// AddMemory attaches a photo to a group directly.
func (b *Backend) AddMemory(groupID int64, filename string) models.Memory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addMemoryLocked(groupID, filename)
}

func (b *Backend) addMemoryLocked(groupID int64, filename string) models.Memory {
	b.nextID++
	m := models.Memory{
		ID:       b.nextID,
		GroupID:  groupID,
		Filename: filename,
		ImageURL: fmt.Sprintf("https://images.example.com/%d/%s", groupID, filename),
	}
	b.memories[groupID] = append([]models.Memory{m}, b.memories[groupID]...)
	return m
}

// Members returns the member ids of a group.
func (b *Backend) Members(groupID int64) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.members[groupID]...)
}

// Expenses returns the expenses stored for a group.
func (b *Backend) Expenses(groupID int64) []models.Expense {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Expense(nil), b.expenses[groupID]...)
}

// ExpireSessions drops every server-side session.
func (b *Backend) ExpireSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = make(map[string]int64)
}

// Password returns the stored password of an account, for reset assertions.
func (b *Backend) Password(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[userID]; ok {
		return a.password
	}
	return ""
}

func (b *Backend) sessionUser(r *http.Request) (models.User, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return models.User{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.sessions[c.Value]
	if !ok {
		return models.User{}, false
	}
	a, ok := b.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

func (b *Backend) startSession(w http.ResponseWriter, userID int64) {
	token := uuid.NewString()
	b.mu.Lock()
	b.sessions[token] = userID
	b.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func (b *Backend) findByEmail(email string) *account {
	for _, a := range b.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	return id, err == nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
