package models

import "time"

// Request lifecycle states. The transition is one-way: OPEN -> RESOLVED.
const (
	StatusOpen     = "OPEN"
	StatusResolved = "RESOLVED"
)

// Request categories shown as feed tabs.
const (
	CategoryEmergency  = "Emergency"
	CategoryMedicine   = "Medicine"
	CategoryTools      = "Tools"
	CategoryGrocery    = "Grocery"
	CategorySeniorCare = "Senior Care"
	CategoryGeneral    = "General"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HelpRequest is a posted need for neighborly help (PostgreSQL).
// HelperID is set at most once, and only while the request is OPEN.
type HelpRequest struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	RequesterID     uint      `json:"requester_id" gorm:"index"`
	RequesterName   string    `json:"requester_name"`
	ContactPhone    string    `json:"-" gorm:"size:10"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category" gorm:"size:20;index"`
	Priority        string    `json:"priority" gorm:"size:10"`
	Status          string    `json:"status" gorm:"size:10;index;default:OPEN"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	LocationVisible bool      `json:"is_location_visible"`
	HelperID        *uint     `json:"helper_id,omitempty"`
	HelperName      string    `json:"helper_name,omitempty"`
	TokensGifted    bool      `json:"tokens_gifted"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time `json:"-"`
}

// CreateRequestRequest defines the request body for posting a help request
type CreateRequestRequest struct {
	Title           string  `json:"title" validate:"required,min=3,max=80"`
	Description     string  `json:"description" validate:"required,min=10,max=500"`
	Category        string  `json:"category" validate:"required,oneof=Emergency Medicine Tools Grocery 'Senior Care' General"`
	Priority        string  `json:"priority" validate:"required,oneof=High Medium Low"`
	ContactPhone    string  `json:"contact_phone" validate:"required,inphone"`
	Lat             float64 `json:"lat" validate:"required"`
	Lng             float64 `json:"lng" validate:"required"`
	LocationVisible bool    `json:"is_location_visible"`
}

// UpdateRequestRequest defines the request body for editing an open help request
type UpdateRequestRequest struct {
	Title           string `json:"title,omitempty" validate:"omitempty,min=3,max=80"`
	Description     string `json:"description,omitempty" validate:"omitempty,min=10,max=500"`
	Category        string `json:"category,omitempty" validate:"omitempty,oneof=Emergency Medicine Tools Grocery 'Senior Care' General"`
	Priority        string `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
	ContactPhone    string `json:"contact_phone,omitempty" validate:"omitempty,inphone"`
	LocationVisible *bool  `json:"is_location_visible,omitempty"`
}

// GiftTokensRequest defines the request body for rewarding the helper.
// Amounts come from a fixed menu, never free-typed.
type GiftTokensRequest struct {
	Amount int `json:"amount" validate:"required,oneof=10 20 50"`
}
