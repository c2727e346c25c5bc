package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/db"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/utils"
)

func newTestUserService(t *testing.T, dbName string) (IUserService, IListingService, *mongo.Database) {
	t.Helper()
	database := utils.SetupTestDB(t, dbName, "users", "listings", "images")
	require.NoError(t, db.EnsureIndexes(context.Background(), database))

	userRepo := repository.NewUserRepository(database)
	listingRepo := repository.NewListingRepository(database)
	imageRepo := repository.NewImageRepository(database)

	userSvc := NewUserService(userRepo, listingRepo, imageRepo, authz.OwnerOnly)
	listingSvc := NewListingService(listingRepo, imageRepo, authz.OwnerOnly,
		&config.Config{DefaultPageSize: 10, MaxPageSize: 100})
	return userSvc, listingSvc, database
}

func registration(email string) RegisterInput {
	return RegisterInput{
		Name:     "Asha K",
		Email:    email,
		Password: "correct horse battery",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_register")
	ctx := context.Background()

	user, err := svc.Register(ctx, registration("asha@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash, "password must be stored hashed")

	logged, err := svc.Login(ctx, "asha@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotNil(t, logged.LastLoginAt)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_register_invalid")
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "X", Email: "not-an-email", Password: "longenough"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "x@example.com", Password: "short"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_register_dup")
	ctx := context.Background()

	_, err := svc.Register(ctx, registration("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registration("dup@example.com"))
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_login")
	ctx := context.Background()

	_, err := svc.Register(ctx, registration("login@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "login@example.com", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "stranger@example.com", "whatever here")
	assert.ErrorIs(t, err, ErrInvalidCredentials,
		"unknown email and wrong password are indistinguishable")
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_profile")
	ctx := context.Background()

	user, err := svc.Register(ctx, registration("profile@example.com"))
	require.NoError(t, err)

	bio := "Seller of fine chairs"
	updated, err := svc.UpdateProfile(ctx, user.ID, user.ID, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)

	// Someone else cannot touch the profile.
	name := "Mallory"
	_, err = svc.UpdateProfile(ctx, user.ID, "intruder", UpdateProfileInput{Name: &name})
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestPublicProfileHidesPrivateFields(t *testing.T) {
	svc, _, _ := newTestUserService(t, "marketplace_test_public")
	ctx := context.Background()

	user, err := svc.Register(ctx, registration("public@example.com"))
	require.NoError(t, err)

	pub := user.Public()
	assert.Equal(t, user.ID, pub.ID)
	assert.Equal(t, user.Name, pub.Name)
	_, err = svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
}

func TestDeleteUserCascades(t *testing.T) {
	userSvc, listingSvc, _ := newTestUserService(t, "marketplace_test_user_delete")
	ctx := context.Background()

	user, err := userSvc.Register(ctx, registration("victim@example.com"))
	require.NoError(t, err)

	listing, err := listingSvc.Create(ctx, user.ID, productInput("Goes with the account"))
	require.NoError(t, err)

	// A non-owner cannot delete the account.
	err = userSvc.Delete(ctx, user.ID, "intruder")
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	require.NoError(t, userSvc.Delete(ctx, user.ID, user.ID))

	_, err = userSvc.GetByID(ctx, user.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = listingSvc.GetByID(ctx, listing.ID)
	assert.True(t, apperr.IsNotFound(err), "listings go with the account")

	remaining, err := listingSvc.ListByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
