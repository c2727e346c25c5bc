package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harshdeep1289/marketplace-platform/internal/api/middleware"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
	"github.com/harshdeep1289/marketplace-platform/internal/tasks"

	"go.uber.org/zap"
)

// RestListingHandler handles REST requests for listings and their images.
type RestListingHandler struct {
	listingService services.IListingService
	imageService   services.IImageService
	taskClient     IAsynqClient
}

// NewRestListingHandler creates a new RestListingHandler.
func NewRestListingHandler(listingService services.IListingService, imageService services.IImageService, taskClient IAsynqClient) *RestListingHandler {
	return &RestListingHandler{
		listingService: listingService,
		imageService:   imageService,
		taskClient:     taskClient,
	}
}

// ListListings handles GET /v1/listings
func (h *RestListingHandler) ListListings(c *gin.Context) {
	var query services.ListingQuery

	if typeStr := c.Query("type"); typeStr != "" {
		t := models.ListingType(typeStr)
		query.Type = &t
	}
	if city := c.Query("city"); city != "" {
		query.City = &city
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		query.Page = page
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		query.Limit = limit
	}

	page, err := h.listingService.ListAll(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetListingByID handles GET /v1/listings/:id
func (h *RestListingHandler) GetListingByID(c *gin.Context) {
	listing, err := h.listingService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// CreateListing handles POST /v1/listings
func (h *RestListingHandler) CreateListing(c *gin.Context) {
	var input services.CreateListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), middleware.RequesterID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// UpdateListing handles PUT /v1/listings/:id
func (h *RestListingHandler) UpdateListing(c *gin.Context) {
	var patch services.UpdateListingInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), c.Param("id"), middleware.RequesterID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing handles DELETE /v1/listings/:id
func (h *RestListingHandler) DeleteListing(c *gin.Context) {
	if err := h.listingService.Delete(c.Request.Context(), c.Param("id"), middleware.RequesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUserListings handles GET /v1/listings/user/:id
func (h *RestListingHandler) ListUserListings(c *gin.Context) {
	listings, err := h.listingService.ListByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings})
}

// AttachImage handles POST /v1/listings/:id/images
func (h *RestListingHandler) AttachImage(c *gin.Context) {
	var input services.AttachImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	listingID := c.Param("id")
	attached, err := h.imageService.Attach(c.Request.Context(), listingID, middleware.RequesterID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := tasks.NewImageProcessTask(attached.Image.ID, attached.ObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		// The record and upload URL are already issued; the thumbnail will
		// simply be missing until the task is replayed.
		logger.Warn("failed to enqueue image processing task",
			zap.String("image_id", attached.Image.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusCreated, attached)
}

// ListImages handles GET /v1/listings/:id/images
func (h *RestListingHandler) ListImages(c *gin.Context) {
	images, err := h.imageService.ListByListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": images})
}

// SetPrimaryImage handles PUT /v1/listings/:id/images/:imageId/primary
func (h *RestListingHandler) SetPrimaryImage(c *gin.Context) {
	err := h.imageService.SetPrimary(c.Request.Context(), c.Param("id"), c.Param("imageId"), middleware.RequesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveImage handles DELETE /v1/listings/:id/images/:imageId
func (h *RestListingHandler) RemoveImage(c *gin.Context) {
	err := h.imageService.Remove(c.Request.Context(), c.Param("id"), c.Param("imageId"), middleware.RequesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
