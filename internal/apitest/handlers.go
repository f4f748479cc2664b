package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	user, ok := b.sessionUser(r)
	if !ok {
		writeError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	writeJSON(w, user)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	a := b.findByEmail(req.Email)
	b.mu.Unlock()
	if a == nil || a.password != req.Password {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	b.startSession(w, a.user.ID)
	writeJSON(w, a.user)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	if b.findByEmail(req.Email) != nil {
		b.mu.Unlock()
		writeError(w, "User already exists", http.StatusConflict)
		return
	}
	user := b.addUserLocked(req.Name, req.Email, req.Password)
	b.mu.Unlock()

	b.startSession(w, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, c.Value)
		b.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, map[string]string{"message": "Logged out"})
}

func (b *Backend) google(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, "Token is required", http.StatusBadRequest)
		return
	}
	email, name, ok := tokenIdentity(req.Token)
	if !ok {
		writeError(w, "Invalid Google token", http.StatusUnauthorized)
		return
	}

	b.mu.Lock()
	a := b.findByEmail(email)
	var user models.User
	if a != nil {
		user = a.user
	} else {
		user = b.addUserLocked(name, email, "")
	}
	b.mu.Unlock()

	b.startSession(w, user.ID)
	writeJSON(w, user)
}

func (b *Backend) requestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	a := b.findByEmail(req.Email)
	b.mu.Unlock()
	if a == nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"message": "Verification code sent to your email"})
}

func (b *Backend) completeReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.findByEmail(req.Email)
	if a == nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	if req.Code != ResetCode {
		writeError(w, "Invalid verification code", http.StatusBadRequest)
		return
	}
	a.password = req.NewPassword
	writeJSON(w, map[string]string{"message": "Password has been reset successfully"})
}

func (b *Backend) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.findByEmail(req.Email)
	if a == nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	a.password = req.NewPassword
	writeJSON(w, map[string]string{"message": "Password updated"})
}

func (b *Backend) groupDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	groups := []models.Group{}
	for id, g := range b.groups {
		for _, m := range b.members[id] {
			if m == userID {
				g.MemberCount = len(b.members[id])
				groups = append(groups, g)
				break
			}
		}
	}
	sortGroups(groups)
	writeJSON(w, groups)
}

func (b *Backend) createGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	var req struct {
		GroupName string `json:"group_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.GroupName) == "" {
		writeError(w, "Group name is required", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.nextID++
	g := models.Group{GroupID: b.nextID, GroupName: req.GroupName}
	b.groups[g.GroupID] = g
	b.members[g.GroupID] = []int64{userID}
	b.mu.Unlock()

	g.MemberCount = 1
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(g)
}

func (b *Backend) groupUsers(w http.ResponseWriter, r *http.Request) {
	b.listUsers(w, r, true)
}

func (b *Backend) notGroupUsers(w http.ResponseWriter, r *http.Request) {
	b.listUsers(w, r, false)
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request, members bool) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	in := make(map[int64]bool)
	for _, id := range b.members[groupID] {
		in[id] = true
	}
	ids := make([]int64, 0, len(b.accounts))
	for id := range b.accounts {
		if in[id] == members {
			ids = append(ids, id)
		}
	}
	users := make([]models.User, 0, len(ids))
	for _, id := range sortedIDs(ids) {
		users = append(users, b.accounts[id].user)
	}
	writeJSON(w, users)
}

func (b *Backend) addUsers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	var req struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.UserIDs) == 0 {
		writeError(w, "No users selected", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.groups[groupID]; !ok {
		writeError(w, "Group not found", http.StatusNotFound)
		return
	}
	b.members[groupID] = append(b.members[groupID], req.UserIDs...)
	writeJSON(w, map[string]string{"message": "Users added to group"})
}

func (b *Backend) addExpense(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	var req models.NewExpense
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	e := models.Expense{
		ID:          b.nextID,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		Description: req.Description,
		ExpenseType: req.ExpenseType,
		Date:        b.Now().Format(time.RFC3339),
	}
	// Shares are stored the way the backend reports them: positive for the
	// payer's net credit, negative for each participant's debt.
	for _, s := range req.Shares {
		if s.UserID == req.PayerID {
			continue
		}
		e.Shares = append(e.Shares, models.UserShare{UserID: s.UserID, ShareAmount: -s.ShareAmount})
	}
	var owed int64
	for _, s := range e.Shares {
		owed -= s.ShareAmount
	}
	e.Shares = append([]models.UserShare{{UserID: req.PayerID, ShareAmount: owed}}, e.Shares...)
	b.expenses[groupID] = append([]models.Expense{e}, b.expenses[groupID]...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(e)
}

func (b *Backend) items(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	items := append([]models.Expense{}, b.expenses[groupID]...)
	writeJSON(w, items)
}

func (b *Backend) getSettlements(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Users []int64 `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balances := b.settlements[groupID][userID]
	out := []models.Settlement{}
	for _, other := range req.Users {
		if other == userID {
			continue
		}
		out = append(out, models.Settlement{UserID: other, ShareAmount: balances[other]})
	}
	writeJSON(w, out)
}

func (b *Backend) insertTransaction(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	var req struct {
		PayerID int64 `json:"payer_id"`
		UserID  int64 `json:"user_id"`
		Amount  int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		writeError(w, "Invalid transaction", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// The payer's debt towards the receiver shrinks by the paid amount.
	current := b.settlements[groupID][req.PayerID][req.UserID]
	b.setBalanceLocked(groupID, req.PayerID, req.UserID, current+req.Amount)

	b.nextID++
	tx := models.Transaction{
		ID:        b.nextID,
		PayerID:   req.PayerID,
		UserID:    req.UserID,
		GroupID:   groupID,
		Amount:    req.Amount,
		CreatedAt: b.Now(),
	}
	b.transactions[groupID] = append([]models.Transaction{tx}, b.transactions[groupID]...)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Transaction recorded"})
}

func (b *Backend) getTransactions(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	txs := append([]models.Transaction{}, b.transactions[groupID]...)
	writeJSON(w, txs)
}

func (b *Backend) listMemories(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupId")
	if !ok {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	memories := append([]models.Memory{}, b.memories[groupID]...)
	writeJSON(w, map[string]any{"success": true, "memories": memories})
}

func (b *Backend) uploadMemory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	groupID, err := strconv.ParseInt(r.FormValue("groupId"), 10, 64)
	if err != nil {
		writeError(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, "Image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeError(w, "Failed to read image", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	m := b.addMemoryLocked(groupID, header.Filename)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Memory uploaded successfully",
		"memory":  m,
	})
}

func (b *Backend) deleteMemory(w http.ResponseWriter, r *http.Request) {
	memoryID, ok := pathID(r, "memoryId")
	if !ok {
		writeError(w, "Invalid memory ID", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for groupID, list := range b.memories {
		for i, m := range list {
			if m.ID == memoryID {
				b.memories[groupID] = append(list[:i:i], list[i+1:]...)
				writeJSON(w, map[string]any{"success": true, "message": "Memory deleted"})
				return
			}
		}
	}
	writeError(w, "Memory not found", http.StatusNotFound)
}
