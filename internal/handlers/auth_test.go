package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bodygoal/internal/auth"
	"bodygoal/internal/mocks"
	"bodygoal/internal/models"
	"bodygoal/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/auth/me", func(c *gin.Context) {
		c.Set("userID", "user-1")
		handler.Me(c)
	})
	return r
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, auth.NewService("test-secret"), nil)
	router := setupAuthRouter(handler)

	userRepo.On("CreateUser", mock.Anything, "a@b.com", mock.AnythingOfType("string"), "Alice").
		Return(models.User{ID: "user-1", Email: "a@b.com"}, nil).Once()

	body := `{"email":"a@b.com","password":"hunter2222","name":"Alice"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	userRepo.AssertExpectations(t)
}

func TestRegisterShortPassword(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), auth.NewService("test-secret"), nil)
	router := setupAuthRouter(handler)

	body := `{"email":"a@b.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEmailTaken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, auth.NewService("test-secret"), nil)
	router := setupAuthRouter(handler)

	userRepo.On("CreateUser", mock.Anything, "a@b.com", mock.AnythingOfType("string"), "").
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	body := `{"email":"a@b.com","password":"hunter2222"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	svc := auth.NewService("test-secret")
	hash, err := svc.HashPassword("hunter2222")
	require.NoError(t, err)

	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, svc, nil)
	router := setupAuthRouter(handler)

	userRepo.On("GetUserByEmail", mock.Anything, "a@b.com").
		Return(models.User{ID: "user-1", Email: "a@b.com", PasswordHash: hash}, nil).Once()

	body := `{"email":"a@b.com","password":"hunter2222"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := auth.NewService("test-secret")
	hash, err := svc.HashPassword("hunter2222")
	require.NoError(t, err)

	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, svc, nil)
	router := setupAuthRouter(handler)

	userRepo.On("GetUserByEmail", mock.Anything, "a@b.com").
		Return(models.User{ID: "user-1", PasswordHash: hash}, nil).Once()

	body := `{"email":"a@b.com","password":"wrongpass1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, auth.NewService("test-secret"), nil)
	router := setupAuthRouter(handler)

	userRepo.On("GetUserByEmail", mock.Anything, "nobody@b.com").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := `{"email":"nobody@b.com","password":"hunter2222"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestMeNotFound(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, auth.NewService("test-secret"), nil)
	router := setupAuthRouter(handler)

	userRepo.On("GetUser", mock.Anything, "user-1").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}
