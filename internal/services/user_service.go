package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/auth"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/db"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/validate"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned by Login for a wrong email or password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateProfileInput is a partial profile patch. Nil fields are left untouched.
type UpdateProfileInput struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
}

// IUserService defines the interface for user account operations.
type IUserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, requesterID string, patch UpdateProfileInput) (*models.User, error)
	Delete(ctx context.Context, id, requesterID string) error
}

// userService implements IUserService.
type userService struct {
	users    *repository.UserRepository
	listings *repository.ListingRepository
	images   *repository.ImageRepository
	can      authz.Predicate
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserRepository, listings *repository.ListingRepository, images *repository.ImageRepository, can authz.Predicate) IUserService {
	return &userService{users: users, listings: listings, images: images, can: can}
}

// Register creates an account with a bcrypt password hash. Email and phone
// uniqueness is enforced by the collection's indexes.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, apperr.ValidationWrap(err, "invalid registration payload")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, apperr.Conflict("email or phone already registered")
		}
		return nil, err
	}

	logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies the credentials and records the login time. Token issuance
// is left to the transport layer.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds; the timestamp is best effort.
		logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

// GetByID returns the user or a not-found error.
func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile merges the patch into the user's own profile.
func (s *userService) UpdateProfile(ctx context.Context, id, requesterID string, patch UpdateProfileInput) (*models.User, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, apperr.ValidationWrap(err, "invalid profile patch")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.can(requesterID, authz.ActionUpdate, user) {
		return nil, apperr.PermissionDenied("you can only update your own profile")
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.AvatarURL != nil {
		set["avatar_url"] = *patch.AvatarURL
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if len(set) == 0 {
		return nil, apperr.Validation("no fields provided for update")
	}

	updated, err := s.users.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		if db.IsMongoDuplicateKeyError(err) {
			return nil, apperr.Conflict("phone already registered")
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the account and cascades to its listings and their images.
func (s *userService) Delete(ctx context.Context, id, requesterID string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.can(requesterID, authz.ActionDelete, user) {
		return apperr.PermissionDenied("you can only delete your own account")
	}

	listingIDs, err := s.listings.DeleteByUserID(ctx, id)
	if err != nil {
		return err
	}
	if len(listingIDs) > 0 {
		if err := s.images.DeleteByListingIDs(ctx, listingIDs); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("user %s not found", id)
		}
		return err
	}

	logger.Info("user deleted", zap.String("user_id", id), zap.Int("listings_removed", len(listingIDs)))
	return nil
}
