package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/auth"
	"bodygoal/internal/repositories"
	"bodygoal/internal/telemetry"
)

// AuthHandler manages registration and login.
type AuthHandler struct {
	userRepo    repositories.UserRepository
	authService *auth.Service
	audit       *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, authService *auth.Service, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, authService: authService, audit: audit}
}

// Register creates an account and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), req.Email, hash, req.Name)
	if errors.Is(err, repositories.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	token, err := h.authService.IssueToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AreaAuth, "INFO", "user registered", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login checks credentials and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, repositories.ErrUserNotFound) || (err == nil && !h.authService.CheckPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.authService.IssueToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AreaAuth, "INFO", "user logged in", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
