package models

import (
	"strings"
	"time"
)

// Notification types. RelatedID carries the entity the notification points
// at; a "conv-" prefix routes the client to the conversation thread.
const (
	NotificationNewRequest        = "NEW_REQUEST"
	NotificationOfferReceived     = "OFFER_RECEIVED"
	NotificationMessageReceived   = "MESSAGE_RECEIVED"
	NotificationTokensReceived    = "TOKENS_RECEIVED"
	NotificationWithdrawalSettled = "WITHDRAWAL_SETTLED"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	Type        string    `json:"type" gorm:"size:30;index"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RelatedID   string    `json:"related_id" gorm:"size:41"`
	Read        bool      `json:"read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// RoutesToConversation reports whether clicking this notification should open
// a chat thread rather than a request detail.
func (n *Notification) RoutesToConversation() bool {
	return strings.HasPrefix(n.RelatedID, "conv-")
}
