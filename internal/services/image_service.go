package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/storage"
	"github.com/harshdeep1289/marketplace-platform/internal/validate"

	"go.uber.org/zap"
)

// AttachImageInput is the payload for attaching an image to a listing. The
// client uploads the bytes separately via the returned pre-signed URL.
type AttachImageInput struct {
	Filename     string `json:"filename" validate:"required,max=255"`
	ContentType  string `json:"content_type" validate:"required,oneof=image/jpeg image/png"`
	IsPrimary    bool   `json:"is_primary,omitempty"`
	DisplayOrder int    `json:"display_order,omitempty" validate:"omitempty,gte=0"`
}

// AttachedImage pairs the created record with the one-time upload URL and the
// object key the thumbnail worker processes after the upload lands.
type AttachedImage struct {
	Image     *models.Image `json:"image"`
	UploadURL string        `json:"upload_url"`
	ObjectKey string        `json:"-"`
}

// IImageService defines the interface for listing-image operations.
type IImageService interface {
	Attach(ctx context.Context, listingID, requesterID string, input AttachImageInput) (*AttachedImage, error)
	ListByListing(ctx context.Context, listingID string) ([]models.Image, error)
	SetPrimary(ctx context.Context, listingID, imageID, requesterID string) error
	Remove(ctx context.Context, listingID, imageID, requesterID string) error
	SetThumbnail(ctx context.Context, imageID, thumbnailURL string) error
}

// imageService implements IImageService.
type imageService struct {
	images   *repository.ImageRepository
	listings *repository.ListingRepository
	store    storage.IS3Storage
	can      authz.Predicate
	cfg      *config.Config
}

// NewImageService creates a new ImageService.
func NewImageService(images *repository.ImageRepository, listings *repository.ListingRepository, store storage.IS3Storage, can authz.Predicate, cfg *config.Config) IImageService {
	return &imageService{images: images, listings: listings, store: store, can: can, cfg: cfg}
}

// Attach reserves an image slot on the listing: it creates the record, marks
// it primary if requested, and hands back a pre-signed PUT URL for the bytes.
func (s *imageService) Attach(ctx context.Context, listingID, requesterID string, input AttachImageInput) (*AttachedImage, error) {
	if err := validate.Struct(input); err != nil {
		return nil, apperr.ValidationWrap(err, "invalid image payload")
	}

	listing, err := s.ownedListing(ctx, listingID, requesterID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	uploadURL, objectKey, err := s.store.GeneratePresignedPutURL(ctx, listing.UserID, listingID, input.Filename, input.ContentType)
	if err != nil {
		return nil, err
	}

	if input.IsPrimary {
		if err := s.images.ClearPrimary(ctx, listingID); err != nil {
			return nil, err
		}
	}

	image := &models.Image{
		ListingID:    listingID,
		URL:          s.objectURL(objectKey),
		IsPrimary:    input.IsPrimary,
		DisplayOrder: input.DisplayOrder,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.images.Insert(ctx, image); err != nil {
		return nil, err
	}

	logger.Info("image attached",
		zap.String("listing_id", listingID),
		zap.String("image_id", image.ID))
	return &AttachedImage{Image: image, UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ListByListing returns the listing's images in display order.
func (s *imageService) ListByListing(ctx context.Context, listingID string) ([]models.Image, error) {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("listing %s not found", listingID)
		}
		return nil, err
	}
	return s.images.FindByListingID(ctx, listingID)
}

// SetPrimary makes the image the listing's primary one, demoting any other.
// At most one image per listing is primary at a time.
func (s *imageService) SetPrimary(ctx context.Context, listingID, imageID, requesterID string) error {
	if _, err := s.ownedListing(ctx, listingID, requesterID, authz.ActionUpdate); err != nil {
		return err
	}

	image, err := s.listingImage(ctx, listingID, imageID)
	if err != nil {
		return err
	}
	if image.IsPrimary {
		return nil
	}

	if err := s.images.ClearPrimary(ctx, listingID); err != nil {
		return err
	}
	return s.images.SetPrimary(ctx, imageID)
}

// Remove deletes the image record and its stored objects.
func (s *imageService) Remove(ctx context.Context, listingID, imageID, requesterID string) error {
	if _, err := s.ownedListing(ctx, listingID, requesterID, authz.ActionUpdate); err != nil {
		return err
	}

	image, err := s.listingImage(ctx, listingID, imageID)
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("image %s not found", imageID)
		}
		return err
	}

	// Object cleanup is best effort; the record is already gone.
	for _, url := range []string{image.URL, image.ThumbnailURL} {
		key := s.objectKey(url)
		if key == "" {
			continue
		}
		if err := s.store.DeleteObject(ctx, key); err != nil {
			logger.Warn("failed to delete image object", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// SetThumbnail records the worker-generated thumbnail URL on the image.
func (s *imageService) SetThumbnail(ctx context.Context, imageID, thumbnailURL string) error {
	if err := s.images.SetThumbnailURL(ctx, imageID, thumbnailURL); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("image %s not found", imageID)
		}
		return err
	}
	return nil
}

func (s *imageService) ownedListing(ctx context.Context, listingID, requesterID string, action authz.Action) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("listing %s not found", listingID)
		}
		return nil, err
	}
	if !s.can(requesterID, action, listing) {
		return nil, apperr.PermissionDenied("you can only manage images on your own listings")
	}
	return listing, nil
}

func (s *imageService) listingImage(ctx context.Context, listingID, imageID string) (*models.Image, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("image %s not found", imageID)
		}
		return nil, err
	}
	if image.ListingID != listingID {
		return nil, apperr.NotFound("image %s not found on listing %s", imageID, listingID)
	}
	return image, nil
}

func (s *imageService) objectURL(key string) string {
	return strings.TrimRight(s.cfg.ImageBaseURL, "/") + "/" + key
}

func (s *imageService) objectKey(url string) string {
	base := strings.TrimRight(s.cfg.ImageBaseURL, "/") + "/"
	if url == "" || !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}
