package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harshdeep1289/marketplace-platform/internal/api/middleware"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
)

// RestUserHandler handles REST requests for user accounts.
type RestUserHandler struct {
	userService services.IUserService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService) *RestUserHandler {
	return &RestUserHandler{userService: userService}
}

// GetMe handles GET /v1/users/me
func (h *RestUserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserByID handles GET /v1/users/:id
// Other users only ever see the public projection.
func (h *RestUserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// UpdateProfile handles PUT /v1/users/:id
func (h *RestUserHandler) UpdateProfile(c *gin.Context) {
	var patch services.UpdateProfileInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.Param("id"), middleware.RequesterID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /v1/users/:id
func (h *RestUserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("id"), middleware.RequesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
