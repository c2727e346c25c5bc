package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/metrics"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/validate"
)

// ListingQuery carries the optional listAll filters. Page is 1-based.
type ListingQuery struct {
	Type  *models.ListingType
	City  *string
	Page  int64
	Limit int64
}

// CreateListingInput is the client payload for creating a listing. Server-owned
// fields (id, counters, timestamps, status) are absent on purpose.
type CreateListingInput struct {
	Type            models.ListingType `json:"type" validate:"required"`
	Title           string             `json:"title" validate:"required,max=500"`
	Description     string             `json:"description,omitempty"`
	BasePrice       *float64           `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	LocationCity    string             `json:"location_city,omitempty" validate:"omitempty,max=100"`
	LocationState   string             `json:"location_state,omitempty" validate:"omitempty,max=100"`
	LocationCountry string             `json:"location_country,omitempty" validate:"omitempty,max=100"`
	LocationLat     *float64           `json:"location_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	LocationLng     *float64           `json:"location_lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	IsOnline        bool               `json:"is_online,omitempty"`
	ExpiresAt       *time.Time         `json:"expires_at,omitempty"`
	Detail          models.Detail      `json:"detail"`
}

// UpdateListingInput is a partial patch. Nil fields are left untouched. The
// listing's type is immutable; a replacement detail must match it.
type UpdateListingInput struct {
	Title           *string               `json:"title,omitempty" validate:"omitempty,max=500"`
	Description     *string               `json:"description,omitempty"`
	BasePrice       *float64              `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	LocationCity    *string               `json:"location_city,omitempty" validate:"omitempty,max=100"`
	LocationState   *string               `json:"location_state,omitempty" validate:"omitempty,max=100"`
	LocationCountry *string               `json:"location_country,omitempty" validate:"omitempty,max=100"`
	LocationLat     *float64              `json:"location_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	LocationLng     *float64              `json:"location_lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	IsOnline        *bool                 `json:"is_online,omitempty"`
	Status          *models.ListingStatus `json:"status,omitempty"`
	ExpiresAt       *time.Time            `json:"expires_at,omitempty"`
	Detail          *models.Detail        `json:"detail,omitempty"`
}

// IListingService defines the interface for listing-related operations. Every
// mutation takes the acting identity as an explicit argument.
type IListingService interface {
	ListAll(ctx context.Context, query ListingQuery) (*models.ListingPage, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	Create(ctx context.Context, ownerID string, input CreateListingInput) (*models.Listing, error)
	Update(ctx context.Context, id, requesterID string, patch UpdateListingInput) (*models.Listing, error)
	Delete(ctx context.Context, id, requesterID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// listingService implements IListingService.
type listingService struct {
	listings *repository.ListingRepository
	images   *repository.ImageRepository
	can      authz.Predicate
	cfg      *config.Config
}

// NewListingService creates a new ListingService.
func NewListingService(listings *repository.ListingRepository, images *repository.ImageRepository, can authz.Predicate, cfg *config.Config) IListingService {
	return &listingService{listings: listings, images: images, can: can, cfg: cfg}
}

// ListAll returns the page of listings matching the optional type/city
// filters. Total counts every match regardless of the page window.
func (s *listingService) ListAll(ctx context.Context, query ListingQuery) (*models.ListingPage, error) {
	if query.Type != nil && !query.Type.Valid() {
		return nil, apperr.Validation("unknown listing type %q", *query.Type)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = s.defaultPageSize()
	}
	if max := s.maxPageSize(); limit > max {
		limit = max
	}

	data, total, err := s.listings.Find(ctx, repository.ListingFilter{
		Type:  query.Type,
		City:  query.City,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	return &models.ListingPage{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// GetByID returns a single listing with its images eagerly attached.
func (s *listingService) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("listing %s not found", id)
		}
		return nil, err
	}
	if err := s.attachImages(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Create validates the payload, defaults the server-owned fields and persists
// the listing together with its matching detail variant in one document.
func (s *listingService) Create(ctx context.Context, ownerID string, input CreateListingInput) (*models.Listing, error) {
	if err := validate.Struct(input); err != nil {
		return nil, apperr.ValidationWrap(err, "invalid listing payload")
	}
	if !input.Type.Valid() {
		return nil, apperr.Validation("type must be one of deal, coupon, product, service")
	}
	if err := input.Detail.Validate(input.Type); err != nil {
		return nil, err
	}

	country := input.LocationCountry
	if country == "" {
		country = models.DefaultCountry
	}

	now := time.Now().UTC()
	listing := &models.Listing{
		UserID:          ownerID,
		Type:            input.Type,
		Title:           input.Title,
		Description:     input.Description,
		BasePrice:       input.BasePrice,
		LocationCity:    input.LocationCity,
		LocationState:   input.LocationState,
		LocationCountry: country,
		LocationLat:     input.LocationLat,
		LocationLng:     input.LocationLng,
		IsOnline:        input.IsOnline,
		Status:          models.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       input.ExpiresAt,
		Detail:          input.Detail,
		Images:          []models.Image{},
	}

	if err := s.listings.Insert(ctx, listing); err != nil {
		return nil, err
	}
	metrics.ListingsCreated.Inc()
	return listing, nil
}

// Update merges the patch into the listing after checking that the requester
// owns it. A replacement detail must match the listing's immutable type.
func (s *listingService) Update(ctx context.Context, id, requesterID string, patch UpdateListingInput) (*models.Listing, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, apperr.ValidationWrap(err, "invalid listing patch")
	}

	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("listing %s not found", id)
		}
		return nil, err
	}
	if !s.can(requesterID, authz.ActionUpdate, listing) {
		return nil, apperr.PermissionDenied("you can only update your own listings")
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.BasePrice != nil {
		set["base_price"] = *patch.BasePrice
	}
	if patch.LocationCity != nil {
		set["location_city"] = *patch.LocationCity
	}
	if patch.LocationState != nil {
		set["location_state"] = *patch.LocationState
	}
	if patch.LocationCountry != nil {
		set["location_country"] = *patch.LocationCountry
	}
	if patch.LocationLat != nil {
		set["location_lat"] = *patch.LocationLat
	}
	if patch.LocationLng != nil {
		set["location_lng"] = *patch.LocationLng
	}
	if patch.IsOnline != nil {
		set["is_online"] = *patch.IsOnline
	}
	if patch.Status != nil {
		// Any status may follow any other; only the value itself is checked.
		if !patch.Status.Valid() {
			return nil, apperr.Validation("unknown status %q", *patch.Status)
		}
		set["status"] = *patch.Status
	}
	if patch.ExpiresAt != nil {
		set["expires_at"] = *patch.ExpiresAt
	}
	if patch.Detail != nil {
		if err := patch.Detail.Validate(listing.Type); err != nil {
			return nil, err
		}
		set["detail"] = *patch.Detail
	}
	if len(set) == 0 {
		return nil, apperr.Validation("no fields provided for update")
	}

	updated, err := s.listings.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("listing %s not found", id)
		}
		return nil, err
	}
	if err := s.attachImages(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the listing and cascades to its images. The detail variant
// lives inside the listing document, so it goes with it.
func (s *listingService) Delete(ctx context.Context, id, requesterID string) error {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("listing %s not found", id)
		}
		return err
	}
	if !s.can(requesterID, authz.ActionDelete, listing) {
		return apperr.PermissionDenied("you can only delete your own listings")
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Raced with another delete; the listing is gone either way.
			return apperr.NotFound("listing %s not found", id)
		}
		return err
	}
	if err := s.images.DeleteByListingIDs(ctx, []string{id}); err != nil {
		return fmt.Errorf("listing %s deleted but image cleanup failed: %w", id, err)
	}
	return nil
}

// ListByOwner returns all listings for a user, images attached, unpaginated.
// A user with zero listings gets an empty slice, not an error.
func (s *listingService) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	listings, err := s.listings.FindByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return listings, nil
	}

	ids := make([]string, 0, len(listings))
	for i := range listings {
		ids = append(ids, listings[i].ID)
	}
	grouped, err := s.images.FindByListingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		imgs := grouped[listings[i].ID]
		if imgs == nil {
			imgs = []models.Image{}
		}
		listings[i].Images = imgs
	}
	return listings, nil
}

// ExpireOverdue flips active listings past their expiry to expired. Invoked
// by the periodic sweep task.
func (s *listingService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.listings.MarkExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	metrics.ListingsExpired.Add(float64(n))
	return n, nil
}

func (s *listingService) attachImages(ctx context.Context, listing *models.Listing) error {
	images, err := s.images.FindByListingID(ctx, listing.ID)
	if err != nil {
		return err
	}
	listing.Images = images
	return nil
}

func (s *listingService) defaultPageSize() int64 {
	if s.cfg != nil && s.cfg.DefaultPageSize > 0 {
		return s.cfg.DefaultPageSize
	}
	return 10
}

func (s *listingService) maxPageSize() int64 {
	if s.cfg != nil && s.cfg.MaxPageSize > 0 {
		return s.cfg.MaxPageSize
	}
	return 100
}
