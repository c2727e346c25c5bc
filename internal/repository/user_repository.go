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

const usersCollection = "users"

// UserRepository persists user accounts.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection(usersCollection)}
}

// Insert persists a new user. A duplicate email or phone surfaces as a
// duplicate key error after the retries regenerate the _id.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	operation := func() error {
		user.GenID()
		_, insertErr := r.coll.InsertOne(ctx, user)
		return insertErr
	}
	return db.Try(operation)
}

// FindByID fetches a user. Returns mongo.ErrNoDocuments when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s: %w", id, err)
	}
	return &user, nil
}

// FindByEmail fetches a user by their unique email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

// Update applies a $set patch and returns the updated user.
func (r *UserRepository) Update(ctx context.Context, id string, set bson.M) (*models.User, error) {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return &updated, nil
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	if err != nil {
		return fmt.Errorf("failed to record login for user %s: %w", id, err)
	}
	return nil
}

// Delete removes a user document.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
