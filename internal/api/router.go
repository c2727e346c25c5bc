package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harshdeep1289/marketplace-platform/internal/api/handlers"
	"github.com/harshdeep1289/marketplace-platform/internal/api/middleware"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/metrics"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
	"github.com/harshdeep1289/marketplace-platform/internal/storage"

	"go.uber.org/zap"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient) *gin.Engine {
	listingRepo := repository.NewListingRepository(db)
	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage for API", zap.Error(err))
	}

	listingService := services.NewListingService(listingRepo, imageRepo, authz.OwnerOnly, cfg)
	imageService := services.NewImageService(imageRepo, listingRepo, s3StorageService, authz.OwnerOnly, cfg)
	userService := services.NewUserService(userRepo, listingRepo, imageRepo, authz.OwnerOnly)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware(cfg.CorsOrigin))
	r.Use(metrics.Middleware())
	r.Use(rateLimiter.Limit())

	restAuthHandler := handlers.NewRestAuthHandler(userService, cfg)
	restListingHandler := handlers.NewRestListingHandler(listingService, imageService, taskClient)
	restUserHandler := handlers.NewRestUserHandler(userService)

	r.GET("/metrics", metrics.Handler())

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Public routes
		v1.POST("/auth/register", restAuthHandler.Register)
		v1.POST("/auth/login", restAuthHandler.Login)

		v1.GET("/listings", restListingHandler.ListListings)
		v1.GET("/listings/user/:id", restListingHandler.ListUserListings)
		v1.GET("/listings/:id", restListingHandler.GetListingByID)
		v1.GET("/listings/:id/images", restListingHandler.ListImages)

		v1.GET("/users/:id", restUserHandler.GetUserByID)

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/listings", restListingHandler.CreateListing)
			authRequired.PUT("/listings/:id", restListingHandler.UpdateListing)
			authRequired.DELETE("/listings/:id", restListingHandler.DeleteListing)

			authRequired.POST("/listings/:id/images", restListingHandler.AttachImage)
			authRequired.PUT("/listings/:id/images/:imageId/primary", restListingHandler.SetPrimaryImage)
			authRequired.DELETE("/listings/:id/images/:imageId", restListingHandler.RemoveImage)

			authRequired.GET("/users/me", restUserHandler.GetMe)
			authRequired.PUT("/users/:id", restUserHandler.UpdateProfile)
			authRequired.DELETE("/users/:id", restUserHandler.DeleteUser)
		}
	}

	return r
}
