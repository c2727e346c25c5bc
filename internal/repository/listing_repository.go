package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harshdeep1289/marketplace-platform/internal/db"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
)

const listingsCollection = "listings"

// ListingFilter narrows a listing query. Type and City are exact-match and
// AND-combined when both are set. Page is 1-based.
type ListingFilter struct {
	Type  *models.ListingType
	City  *string
	Page  int64
	Limit int64
}

// ListingRepository executes listing queries and single-record mutations
// against MongoDB. Ownership checks belong to the service layer, not here.
type ListingRepository struct {
	coll *mongo.Collection
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(database *mongo.Database) *ListingRepository {
	return &ListingRepository{coll: database.Collection(listingsCollection)}
}

// Insert persists a new listing document, regenerating its id on the
// (unlikely) event of an _id collision.
func (r *ListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	operation := func() error {
		listing.GenID()
		_, insertErr := r.coll.InsertOne(ctx, listing)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to insert listing for user %s: %w", listing.UserID, err)
	}
	return nil
}

// FindByID fetches a single listing. Returns mongo.ErrNoDocuments when the id
// does not exist.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing %s: %w", id, err)
	}
	return &listing, nil
}

// Find returns the page of listings matching the filter, newest first, along
// with the total matching count independent of the pagination window.
func (r *ListingRepository) Find(ctx context.Context, filter ListingFilter) ([]models.Listing, int64, error) {
	query := bson.M{}
	if filter.Type != nil {
		query["type"] = *filter.Type
	}
	if filter.City != nil {
		query["location_city"] = *filter.City
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Listing{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("failed to decode listings: %w", err)
	}
	return results, total, nil
}

// FindByUserID returns all listings owned by a user, newest first, without
// pagination.
func (r *ListingRepository) FindByUserID(ctx context.Context, userID string) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	results := []models.Listing{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode listings for user %s: %w", userID, err)
	}
	return results, nil
}

// Update applies a $set patch and returns the updated document. Returns
// mongo.ErrNoDocuments when the id does not exist.
func (r *ListingRepository) Update(ctx context.Context, id string, set bson.M) (*models.Listing, error) {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Listing
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a listing document. Returns mongo.ErrNoDocuments when
// nothing was deleted.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByUserID removes all of a user's listings and returns their ids so
// the caller can cascade to dependent records.
func (r *ListingRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for user %s: %w", userID, err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listing ids for user %s: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if _, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("failed to delete listings for user %s: %w", userID, err)
	}
	return ids, nil
}

// MarkExpired flips active listings whose expiry has passed to the expired
// status and returns how many were updated.
func (r *ListingRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":     models.StatusActive,
		"expires_at": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.StatusExpired,
		"updated_at": now,
	}}
	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired listings: %w", err)
	}
	return result.ModifiedCount, nil
}
