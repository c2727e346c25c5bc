package models

import (
	"time"
)

// ListingType discriminates the four kinds of marketplace postings.
type ListingType string

const (
	ListingTypeDeal    ListingType = "deal"
	ListingTypeCoupon  ListingType = "coupon"
	ListingTypeProduct ListingType = "product"
	ListingTypeService ListingType = "service"
)

// Valid reports whether t is one of the known listing types.
func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeDeal, ListingTypeCoupon, ListingTypeProduct, ListingTypeService:
		return true
	}
	return false
}

// ListingStatus is a plain tag with no transition guard: any status may
// follow any other.
type ListingStatus string

const (
	StatusActive   ListingStatus = "active"
	StatusInactive ListingStatus = "inactive"
	StatusBlocked  ListingStatus = "blocked"
	StatusExpired  ListingStatus = "expired"
	StatusSold     ListingStatus = "sold"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBlocked, StatusExpired, StatusSold:
		return true
	}
	return false
}

// MaxTitleLength bounds listing titles.
const MaxTitleLength = 500

// DefaultCountry is applied when a listing is created without a country.
const DefaultCountry = "India"

// Listing is a single marketplace posting. Its type-specific attributes live
// in the embedded Detail union, so a listing and its detail are written in one
// document and cannot drift apart.
type Listing struct {
	Base            `bson:",inline"`
	UserID          string        `bson:"user_id" json:"user_id"`
	Type            ListingType   `bson:"type" json:"type"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description,omitempty" json:"description,omitempty"`
	BasePrice       *float64      `bson:"base_price,omitempty" json:"base_price,omitempty"`
	LocationCity    string        `bson:"location_city,omitempty" json:"location_city,omitempty"`
	LocationState   string        `bson:"location_state,omitempty" json:"location_state,omitempty"`
	LocationCountry string        `bson:"location_country" json:"location_country"`
	LocationLat     *float64      `bson:"location_lat,omitempty" json:"location_lat,omitempty"`
	LocationLng     *float64      `bson:"location_lng,omitempty" json:"location_lng,omitempty"`
	IsOnline        bool          `bson:"is_online" json:"is_online"`
	Status          ListingStatus `bson:"status" json:"status"`
	ViewsCount      int64         `bson:"views_count" json:"views_count"`
	FavoritesCount  int64         `bson:"favorites_count" json:"favorites_count"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
	ExpiresAt       *time.Time    `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Detail          Detail        `bson:"detail" json:"detail"`

	// Images live in their own collection and are attached on reads.
	Images []Image `bson:"-" json:"images"`
}

// OwnerID returns the id of the user who created the listing.
func (l *Listing) OwnerID() string {
	return l.UserID
}

// ListingPage is the result of a paginated listing query. Total is the full
// matching count, independent of the pagination window.
type ListingPage struct {
	Data  []Listing `json:"data"`
	Total int64     `json:"total"`
	Page  int64     `json:"page"`
	Limit int64     `json:"limit"`
}
