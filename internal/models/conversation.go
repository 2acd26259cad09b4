package models

import "time"

// Message is a single chat message embedded in a conversation document.
// Immutable once appended.
type Message struct {
	ID         string    `json:"id" bson:"id"`
	SenderID   uint      `json:"sender_id" bson:"sender_id"`
	SenderName string    `json:"sender_name" bson:"sender_name"`
	Text       string    `json:"text" bson:"text"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	IsSelf     bool      `json:"is_self" bson:"-"`
}

// Conversation is the chat thread bound to a help request (MongoDB). The
// document id is derived from the request id, which is what enforces the
// one-conversation-per-request invariant together with lookup-before-create.
//
// RequesterPhone and RequesterLat/Lng are snapshots copied at creation time,
// not live links to the request: this is the privacy gate. The location is
// only copied when the request had LocationVisible set at disclosure time.
type Conversation struct {
	ID                string         `json:"id" bson:"_id"`
	RequestID         string         `json:"request_id" bson:"request_id"`
	RequestTitle      string         `json:"request_title" bson:"request_title"`
	RequesterID       uint           `json:"requester_id" bson:"requester_id"`
	RequesterName     string         `json:"requester_name" bson:"requester_name"`
	RequesterInitials string         `json:"requester_initials" bson:"requester_initials"`
	RequesterPhone    string         `json:"requester_phone" bson:"requester_phone"`
	RequesterLat      *float64       `json:"requester_lat,omitempty" bson:"requester_lat,omitempty"`
	RequesterLng      *float64       `json:"requester_lng,omitempty" bson:"requester_lng,omitempty"`
	HelperID          uint           `json:"helper_id" bson:"helper_id"`
	HelperName        string         `json:"helper_name" bson:"helper_name"`
	HelperInitials    string         `json:"helper_initials" bson:"helper_initials"`
	Messages          []Message      `json:"messages" bson:"messages"`
	LastMessageAt     time.Time      `json:"last_message_at" bson:"last_message_at"`
	Unread            map[string]int `json:"unread" bson:"unread"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
}

// ConversationIDForRequest derives the deterministic conversation id.
func ConversationIDForRequest(requestID string) string {
	return "conv-" + requestID
}

// IsParticipant reports whether the given user is one of the two sides.
func (c *Conversation) IsParticipant(userID uint) bool {
	return userID == c.RequesterID || userID == c.HelperID
}

// OtherParticipant returns the opposite side of the thread.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if userID == c.RequesterID {
		return c.HelperID
	}
	return c.RequesterID
}

// SendMessageRequest defines the request body for appending a message
type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}
