package models

import (
	"time"
)

// Image belongs to exactly one listing. At most one image per listing may be
// primary; DisplayOrder gives a stable sort for galleries.
type Image struct {
	Base         `bson:",inline"`
	ListingID    string    `bson:"listing_id" json:"listing_id"`
	URL          string    `bson:"url" json:"url"`
	ThumbnailURL string    `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	IsPrimary    bool      `bson:"is_primary" json:"is_primary"`
	DisplayOrder int       `bson:"display_order" json:"display_order"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
