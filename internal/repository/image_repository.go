package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harshdeep1289/marketplace-platform/internal/db"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
)

const imagesCollection = "images"

// ImageRepository persists listing images in their own collection, keyed to
// the owning listing.
type ImageRepository struct {
	coll *mongo.Collection
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(database *mongo.Database) *ImageRepository {
	return &ImageRepository{coll: database.Collection(imagesCollection)}
}

// Insert persists a new image record.
func (r *ImageRepository) Insert(ctx context.Context, image *models.Image) error {
	operation := func() error {
		image.GenID()
		_, insertErr := r.coll.InsertOne(ctx, image)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to insert image for listing %s: %w", image.ListingID, err)
	}
	return nil
}

// FindByID fetches a single image record.
func (r *ImageRepository) FindByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&image)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding image %s: %w", id, err)
	}
	return &image, nil
}

// FindByListingID returns a listing's images in display order.
func (r *ImageRepository) FindByListingID(ctx context.Context, listingID string) ([]models.Image, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	images := []models.Image{}
	if err = cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images for listing %s: %w", listingID, err)
	}
	return images, nil
}

// FindByListingIDs returns images for many listings at once, grouped by
// listing id, each group in display order.
func (r *ImageRepository) FindByListingIDs(ctx context.Context, listingIDs []string) (map[string][]models.Image, error) {
	grouped := make(map[string][]models.Image, len(listingIDs))
	if len(listingIDs) == 0 {
		return grouped, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"listing_id": bson.M{"$in": listingIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for %d listings: %w", len(listingIDs), err)
	}
	defer cursor.Close(ctx)

	var images []models.Image
	if err = cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	for _, img := range images {
		grouped[img.ListingID] = append(grouped[img.ListingID], img)
	}
	return grouped, nil
}

// ClearPrimary unsets the primary flag on all of a listing's images so a new
// primary can be set, keeping "at most one primary" true.
func (r *ImageRepository) ClearPrimary(ctx context.Context, listingID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"listing_id": listingID, "is_primary": true},
		bson.M{"$set": bson.M{"is_primary": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear primary image for listing %s: %w", listingID, err)
	}
	return nil
}

// SetPrimary marks one image primary. The caller clears the previous primary
// first.
func (r *ImageRepository) SetPrimary(ctx context.Context, id string) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_primary": true}})
	if err != nil {
		return fmt.Errorf("failed to set primary image %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetThumbnailURL records the processed thumbnail location for an image.
func (r *ImageRepository) SetThumbnailURL(ctx context.Context, id, thumbnailURL string) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"thumbnail_url": thumbnailURL}})
	if err != nil {
		return fmt.Errorf("failed to set thumbnail for image %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a single image record.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByListingIDs cascades image removal when listings are deleted.
func (r *ImageRepository) DeleteByListingIDs(ctx context.Context, listingIDs []string) error {
	if len(listingIDs) == 0 {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{"listing_id": bson.M{"$in": listingIDs}})
	if err != nil {
		return fmt.Errorf("failed to delete images for %d listings: %w", len(listingIDs), err)
	}
	return nil
}
