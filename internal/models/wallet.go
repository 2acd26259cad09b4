package models

import "time"

// WithdrawalThreshold is the minimum balance required to cash out; a
// withdrawal always debits exactly this amount.
const WithdrawalThreshold = 100

// GiftAmounts is the fixed menu of token amounts a requester can gift.
var GiftAmounts = []int{10, 20, 50}

// ValidGiftAmount reports whether the amount comes from the fixed menu.
func ValidGiftAmount(amount int) bool {
	for _, a := range GiftAmounts {
		if amount == a {
			return true
		}
	}
	return false
}

// Withdrawal statuses. The balance is debited only at settlement, so a
// withdrawal abandoned while PENDING leaves the balance untouched.
const (
	WithdrawalPending = "PENDING"
	WithdrawalSettled = "SETTLED"
	WithdrawalFailed  = "FAILED"
)

// Withdrawal payout methods.
const (
	MethodPhonePe = "PhonePe"
	MethodBank    = "Bank"
)

// Withdrawal is a cash-out of exactly WithdrawalThreshold tokens (PostgreSQL).
type Withdrawal struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"index"`
	Reference   string     `json:"reference" gorm:"size:36;uniqueIndex"`
	Method      string     `json:"method" gorm:"size:10"`
	Destination string     `json:"destination"`
	Amount      int        `json:"amount"`
	Status      string     `json:"status" gorm:"size:10;index"`
	CreatedAt   time.Time  `json:"created_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}

// Wallet transaction types for the history ledger.
const (
	TransactionGiftReceived = "GIFT_RECEIVED"
	TransactionWithdrawal   = "WITHDRAWAL"
)

// WalletTransaction records every credit and debit for wallet history.
// Amount is signed: positive = credit, negative = debit.
type WalletTransaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Amount    int       `json:"amount" gorm:"not null"`
	Type      string    `json:"type" gorm:"size:30;not null;index"`
	Reference string    `json:"reference" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
}

// WithdrawRequest defines the request body for initiating a cash-out
type WithdrawRequest struct {
	Method      string `json:"method" validate:"required,oneof=PhonePe Bank"`
	Destination string `json:"destination" validate:"required,min=3,max=128"`
}

// WalletSnapshot is the wallet query surface returned to the client.
type WalletSnapshot struct {
	Balance      int                 `json:"balance"`
	Threshold    int                 `json:"threshold"`
	CanWithdraw  bool                `json:"can_withdraw"`
	Pending      *Withdrawal         `json:"pending_withdrawal,omitempty"`
	Transactions []WalletTransaction `json:"transactions"`
}
