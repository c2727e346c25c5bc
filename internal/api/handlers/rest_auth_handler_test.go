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
	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/models"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
)

func authTestConfig() *config.Config {
	return &config.Config{JwtSecret: "test-secret", JwtTTL: time.Hour}
}

func sampleUser(id string) *models.User {
	u := &models.User{
		Name:      "Asha K",
		Email:     "asha@example.com",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	u.SetID(id)
	return u
}

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUserSvc := new(MockUserService)
	handler := handlers.NewRestAuthHandler(mockUserSvc, authTestConfig())

	r := gin.New()
	r.POST("/v1/auth/register", handler.Register)

	mockUserSvc.On("Register", mock.Anything, mock.AnythingOfType("services.RegisterInput")).
		Return(sampleUser("u-1"), nil)

	body, _ := json.Marshal(map[string]string{
		"name":     "Asha K",
		"email":    "asha@example.com",
		"password": "correct horse battery",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])

	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "asha@example.com", user["email"])
	_, exposed := user["password_hash"]
	assert.False(t, exposed, "password hash must never be serialized")
	mockUserSvc.AssertExpectations(t)
}

func TestRegisterConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUserSvc := new(MockUserService)
	handler := handlers.NewRestAuthHandler(mockUserSvc, authTestConfig())

	r := gin.New()
	r.POST("/v1/auth/register", handler.Register)

	mockUserSvc.On("Register", mock.Anything, mock.AnythingOfType("services.RegisterInput")).
		Return(nil, apperr.Conflict("email or phone already registered"))

	body, _ := json.Marshal(map[string]string{
		"name":     "Asha K",
		"email":    "asha@example.com",
		"password": "correct horse battery",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUserSvc := new(MockUserService)
	handler := handlers.NewRestAuthHandler(mockUserSvc, authTestConfig())

	r := gin.New()
	r.POST("/v1/auth/login", handler.Login)

	mockUserSvc.On("Login", mock.Anything, "asha@example.com", "correct horse battery").
		Return(sampleUser("u-1"), nil)

	body, _ := json.Marshal(map[string]string{
		"email":    "asha@example.com",
		"password": "correct horse battery",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	mockUserSvc.AssertExpectations(t)
}

func TestLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUserSvc := new(MockUserService)
	handler := handlers.NewRestAuthHandler(mockUserSvc, authTestConfig())

	r := gin.New()
	r.POST("/v1/auth/login", handler.Login)

	mockUserSvc.On("Login", mock.Anything, "asha@example.com", "wrong").
		Return(nil, services.ErrInvalidCredentials)

	body, _ := json.Marshal(map[string]string{"email": "asha@example.com", "password": "wrong"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
