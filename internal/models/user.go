package models

import (
	"time"
)

// User represents a marketplace account. A user owns zero or more listings
// and is the sole authority to mutate or delete them.
type User struct {
	Base         `bson:",inline"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string     `bson:"password_hash" json:"-"` // Never serialized to clients
	AvatarURL    string     `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Bio          string     `bson:"bio,omitempty" json:"bio,omitempty"`
	RatingAvg    float64    `bson:"rating_avg" json:"rating_avg"`
	RatingCount  int        `bson:"rating_count" json:"rating_count"`
	IsVerified   bool       `bson:"is_verified" json:"is_verified"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// OwnerID makes a user the owner of their own account for authorization
// checks.
func (u *User) OwnerID() string {
	return u.ID
}

// PublicProfile strips the fields other users have no business seeing.
type PublicProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
		RatingAvg:   u.RatingAvg,
		RatingCount: u.RatingCount,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}
