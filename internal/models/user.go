package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the profile aggregate, including the token wallet. The wallet
// balance is only ever mutated through the wallet repository.
type User struct {
	ID                uint     `json:"id" gorm:"primaryKey"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone" gorm:"uniqueIndex;size:10"`
	Password          string   `json:"-"`
	Bio               string   `json:"bio"`
	MemberSince       time.Time `json:"member_since"`
	HelpedCount       int      `json:"helped_count"`
	RequestedCount    int      `json:"requested_count"`
	Rating            float64  `json:"rating"`
	RatingCount       int      `json:"rating_count"`
	EmergencyName     string   `json:"emergency_name,omitempty"`
	EmergencyPhone    string   `json:"emergency_phone,omitempty"`
	Lat               *float64 `json:"lat,omitempty"`
	Lng               *float64 `json:"lng,omitempty"`
	LocationVisible   bool     `json:"is_location_visible"`
	TokenBalance      int      `json:"token_balance"`
	PendingWithdrawal bool     `json:"pending_withdrawal"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

// AvatarInitials derives up to two initials from the user's name.
func (u *User) AvatarInitials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.Name) {
		b.WriteString(strings.ToUpper(string([]rune(part)[0])))
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "N"
	}
	return b.String()
}

// ToCompact returns the public view of a user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID,
		Name:     u.Name,
		Initials: u.AvatarInitials(),
		Rating:   u.Rating,
	}
}

// UserCompact is the minimal user shape embedded in other responses. It never
// carries contact details; those are only disclosed through the conversation
// snapshot created by an accepted offer.
type UserCompact struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Initials string  `json:"initials"`
	Rating   float64 `json:"rating"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Phone    string `json:"phone" validate:"required,inphone"`
	Password string `json:"password" validate:"required,min=6"`
}

type SigninRequest struct {
	Phone    string `json:"phone" validate:"required,inphone"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name            string   `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio             string   `json:"bio,omitempty" validate:"omitempty,max=280"`
	EmergencyName   string   `json:"emergency_name,omitempty" validate:"omitempty,max=50"`
	EmergencyPhone  string   `json:"emergency_phone,omitempty" validate:"omitempty,inphone"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
	LocationVisible *bool    `json:"is_location_visible,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}
