package handlers

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
	"github.com/padosi-app/backend/validators"
)

// newTestContext builds an echo context carrying JWT claims the way the auth
// middleware would.
func newTestContext(method, target, body string, claims *models.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validators.NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("user", claims)
	}
	return c, rec
}

func claimsFor(id uint, name string) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{UserID: id, Name: name, Phone: "9876543210"}
}

// --- fake user repository ---

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]*models.User{}}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByPhone(phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetUsersWithLocation() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if user.Lat != nil && user.Lng != nil {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) IncrementHelpedCount(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.HelpedCount++
	}
	return nil
}

func (r *fakeUserRepo) IncrementRequestedCount(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.RequestedCount++
	}
	return nil
}

// --- fake request repository ---

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.HelpRequest
	order    []string
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*models.HelpRequest{}}
}

func (r *fakeRequestRepo) Create(req *models.HelpRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.CreatedAt = time.Now()
	cp := *req
	r.requests[req.ID] = &cp
	r.order = append([]string{req.ID}, r.order...)
	return nil
}

func (r *fakeRequestRepo) GetByID(id string) (*models.HelpRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) GetOpen() ([]models.HelpRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.HelpRequest
	for _, id := range r.order {
		if req := r.requests[id]; req.Status == models.StatusOpen {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) GetByRequesterID(requesterID uint) ([]models.HelpRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.HelpRequest
	for _, id := range r.order {
		if req := r.requests[id]; req.RequesterID == requesterID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(req *models.HelpRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) Resolve(id string) (*models.HelpRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	if req.Status == models.StatusResolved {
		cp := *req
		return &cp, false, nil
	}
	req.Status = models.StatusResolved
	cp := *req
	return &cp, true, nil
}

func (r *fakeRequestRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.requests, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRequestRepo) AcceptOffer(id string, helperID uint, helperName string) (*models.HelpRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if req.HelperID != nil {
		if *req.HelperID == helperID {
			cp := *req
			return &cp, nil
		}
		return nil, repositories.ErrAlreadyOffered
	}
	if req.Status != models.StatusOpen {
		return nil, repositories.ErrAlreadyResolved
	}
	req.HelperID = &helperID
	req.HelperName = helperName
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) MarkGifted(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if req.Status != models.StatusResolved {
		return repositories.ErrNotResolved
	}
	if req.TokensGifted {
		return repositories.ErrAlreadyGifted
	}
	req.TokensGifted = true
	return nil
}

// --- fake notification repository ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	nextID        uint
	notifications []models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.notifications[i].RecipientID == recipientID {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(notificationID, recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID && r.notifications[i].RecipientID == recipientID {
			r.notifications[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID {
			r.notifications[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) ClearAll(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.RecipientID != recipientID {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

// byType returns the recipient's notifications of one type, for assertions.
func (r *fakeNotificationRepo) byType(recipientID uint, typ string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// --- fake wallet repository ---

// fakeWalletRepo mutates balances on the shared fakeUserRepo, mirroring how
// the real repository owns the balance column on the users table.
type fakeWalletRepo struct {
	mu          sync.Mutex
	users       *fakeUserRepo
	nextID      uint
	withdrawals []*models.Withdrawal
	txs         []models.WalletTransaction
}

func newFakeWalletRepo(users *fakeUserRepo) *fakeWalletRepo {
	return &fakeWalletRepo{users: users, nextID: 1}
}

func (r *fakeWalletRepo) Credit(userID uint, amount int, reference string) error {
	if !models.ValidGiftAmount(amount) {
		return repositories.ErrInvalidGiftAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	user, ok := r.users.users[userID]
	if !ok {
		r.users.mu.Unlock()
		return repositories.ErrNotFound
	}
	user.TokenBalance += amount
	r.users.mu.Unlock()
	r.txs = append(r.txs, models.WalletTransaction{
		UserID: userID, Amount: amount, Type: models.TransactionGiftReceived, Reference: reference,
	})
	return nil
}

func (r *fakeWalletRepo) BeginWithdrawal(userID uint, w *models.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	user, ok := r.users.users[userID]
	if !ok {
		r.users.mu.Unlock()
		return repositories.ErrNotFound
	}
	if user.PendingWithdrawal {
		r.users.mu.Unlock()
		return repositories.ErrWithdrawalInProgress
	}
	if user.TokenBalance < models.WithdrawalThreshold {
		r.users.mu.Unlock()
		return repositories.ErrInsufficientBalance
	}
	user.PendingWithdrawal = true
	r.users.mu.Unlock()

	w.ID = r.nextID
	r.nextID++
	w.UserID = userID
	w.Amount = models.WithdrawalThreshold
	w.Status = models.WithdrawalPending
	w.CreatedAt = time.Now()
	cp := *w
	r.withdrawals = append(r.withdrawals, &cp)
	return nil
}

func (r *fakeWalletRepo) SettleWithdrawal(w *models.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	user := r.users.users[w.UserID]
	if user == nil || user.TokenBalance < w.Amount {
		if user != nil {
			user.PendingWithdrawal = false
		}
		r.users.mu.Unlock()
		w.Status = models.WithdrawalFailed
		r.setStatus(w.Reference, models.WithdrawalFailed, nil)
		return nil
	}
	user.TokenBalance -= w.Amount
	user.PendingWithdrawal = false
	r.users.mu.Unlock()

	now := time.Now()
	w.Status = models.WithdrawalSettled
	w.SettledAt = &now
	r.setStatus(w.Reference, models.WithdrawalSettled, &now)
	r.txs = append(r.txs, models.WalletTransaction{
		UserID: w.UserID, Amount: -w.Amount, Type: models.TransactionWithdrawal, Reference: w.Reference,
	})
	return nil
}

func (r *fakeWalletRepo) setStatus(reference, status string, settledAt *time.Time) {
	for _, stored := range r.withdrawals {
		if stored.Reference == reference {
			stored.Status = status
			stored.SettledAt = settledAt
		}
	}
}

func (r *fakeWalletRepo) GetPendingWithdrawal(userID uint) (*models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.withdrawals) - 1; i >= 0; i-- {
		if r.withdrawals[i].UserID == userID && r.withdrawals[i].Status == models.WithdrawalPending {
			cp := *r.withdrawals[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeWalletRepo) GetWithdrawals(userID uint) ([]models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Withdrawal
	for i := len(r.withdrawals) - 1; i >= 0; i-- {
		if r.withdrawals[i].UserID == userID {
			out = append(out, *r.withdrawals[i])
		}
	}
	return out, nil
}

func (r *fakeWalletRepo) GetTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WalletTransaction
	for i := len(r.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.txs[i].UserID == userID {
			out = append(out, r.txs[i])
		}
	}
	return out, nil
}

// --- fake conversation repository ---

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: map[string]*models.Conversation{}}
}

func copyConversation(conv *models.Conversation) *models.Conversation {
	cp := *conv
	cp.Messages = append([]models.Message(nil), conv.Messages...)
	cp.Unread = map[string]int{}
	for k, v := range conv.Unread {
		cp.Unread[k] = v
	}
	return &cp
}

func (r *fakeConversationRepo) Create(_ context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.CreatedAt = time.Now()
	r.conversations[conv.ID] = copyConversation(conv)
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyConversation(conv), nil
}

func (r *fakeConversationRepo) GetByRequestID(_ context.Context, requestID string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.conversations {
		if conv.RequestID == requestID {
			return copyConversation(conv), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeConversationRepo) GetByParticipant(_ context.Context, userID uint) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conv := range r.conversations {
		if conv.IsParticipant(userID) {
			out = append(out, *copyConversation(conv))
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) AppendMessage(_ context.Context, id string, msg models.Message, recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.LastMessageAt = msg.Timestamp
	if conv.Unread == nil {
		conv.Unread = map[string]int{}
	}
	conv.Unread[uintKey(recipientID)]++
	return nil
}

func (r *fakeConversationRepo) MarkRead(_ context.Context, id string, viewerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if conv.Unread == nil {
		conv.Unread = map[string]int{}
	}
	conv.Unread[uintKey(viewerID)] = 0
	return nil
}

func uintKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
