package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harshdeep1289/marketplace-platform/internal/api/handlers"
	"github.com/harshdeep1289/marketplace-platform/internal/api/middleware"
	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
)

// asUser injects an authenticated identity the way the JWT middleware would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func sampleListing(id, owner string) *models.Listing {
	l := &models.Listing{
		UserID:          owner,
		Type:            models.ListingTypeProduct,
		Title:           "Bookshelf",
		LocationCountry: models.DefaultCountry,
		Status:          models.StatusActive,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
		Detail: models.Detail{
			Product: &models.ProductDetail{
				Category:  "furniture",
				Condition: models.ConditionUsed,
				Quantity:  1,
			},
		},
		Images: []models.Image{},
	}
	l.SetID(id)
	return l
}

func TestListListings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.GET("/v1/listings", handler.ListListings)

	typ := models.ListingTypeProduct
	city := "Mumbai"
	expected := &models.ListingPage{
		Data:  []models.Listing{*sampleListing("l-1", "u-1")},
		Total: 12,
		Page:  2,
		Limit: 5,
	}
	mockListingSvc.On("ListAll", mock.Anything, services.ListingQuery{
		Type: &typ, City: &city, Page: 2, Limit: 5,
	}).Return(expected, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listings?type=product&city=Mumbai&page=2&limit=5", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var page models.ListingPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(12), page.Total)
	assert.Len(t, page.Data, 1)
	mockListingSvc.AssertExpectations(t)
}

func TestListListingsRejectsBadPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestListingHandler(new(MockListingService), new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.GET("/v1/listings", handler.ListListings)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listings?page=zero", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetListingByID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.GET("/v1/listings/:id", handler.GetListingByID)

	mockListingSvc.On("GetByID", mock.Anything, "l-1").Return(sampleListing("l-1", "u-1"), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listings/l-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got models.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Bookshelf", got.Title)
	require.NotNil(t, got.Detail.Product)
	assert.Equal(t, "furniture", got.Detail.Product.Category)
	mockListingSvc.AssertExpectations(t)
}

func TestGetListingByIDNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.GET("/v1/listings/:id", handler.GetListingByID)

	mockListingSvc.On("GetByID", mock.Anything, "missing").Return(nil, apperr.NotFound("listing missing not found"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listings/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "not found")
}

func TestCreateListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.POST("/v1/listings", asUser("u-1"), handler.CreateListing)

	mockListingSvc.On("Create", mock.Anything, "u-1", mock.AnythingOfType("services.CreateListingInput")).
		Return(sampleListing("l-new", "u-1"), nil)

	payload := map[string]interface{}{
		"type":  "product",
		"title": "Bookshelf",
		"detail": map[string]interface{}{
			"product": map[string]interface{}{
				"category":  "furniture",
				"condition": "used",
				"quantity":  1,
			},
		},
	}
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockListingSvc.AssertExpectations(t)
}

func TestUpdateListingForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.PUT("/v1/listings/:id", asUser("intruder"), handler.UpdateListing)

	mockListingSvc.On("Update", mock.Anything, "l-1", "intruder", mock.AnythingOfType("services.UpdateListingInput")).
		Return(nil, apperr.PermissionDenied("you can only update your own listings"))

	body, _ := json.Marshal(map[string]string{"title": "Hijacked"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/v1/listings/l-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockListingSvc.AssertExpectations(t)
}

func TestDeleteListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockListingSvc := new(MockListingService)
	handler := handlers.NewRestListingHandler(mockListingSvc, new(MockImageService), new(MockAsynqClient))

	r := gin.New()
	r.DELETE("/v1/listings/:id", asUser("u-1"), handler.DeleteListing)

	mockListingSvc.On("Delete", mock.Anything, "l-1", "u-1").Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/listings/l-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockListingSvc.AssertExpectations(t)
}

func TestAttachImageEnqueuesProcessing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockImageSvc := new(MockImageService)
	mockTaskClient := new(MockAsynqClient)
	handler := handlers.NewRestListingHandler(new(MockListingService), mockImageSvc, mockTaskClient)

	r := gin.New()
	r.POST("/v1/listings/:id/images", asUser("u-1"), handler.AttachImage)

	img := &models.Image{ListingID: "l-1", URL: "https://img.example.com/uploads/u-1/l-1/key_photo.jpg"}
	img.SetID("img-1")
	attached := &services.AttachedImage{
		Image:     img,
		UploadURL: "https://s3.example.com/presigned",
		ObjectKey: "uploads/u-1/l-1/key_photo.jpg",
	}
	mockImageSvc.On("Attach", mock.Anything, "l-1", "u-1", mock.AnythingOfType("services.AttachImageInput")).
		Return(attached, nil)
	mockTaskClient.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"filename":     "photo.jpg",
		"content_type": "image/jpeg",
		"is_primary":   true,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/listings/l-1/images", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://s3.example.com/presigned", resp["upload_url"])
	mockImageSvc.AssertExpectations(t)
	mockTaskClient.AssertExpectations(t)
}
