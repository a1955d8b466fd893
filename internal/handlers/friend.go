package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/models"
	"bodygoal/internal/repositories"
	"bodygoal/internal/telemetry"
)

// FriendHandler manages friend requests and the friend list.
type FriendHandler struct {
	friendRepo repositories.FriendshipRepository
	audit      *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendRepo repositories.FriendshipRepository, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, audit: audit}
}

// SendRequest creates a pending friend request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	if userID == req.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot friend yourself"})
		return
	}

	friendship, err := h.friendRepo.CreateRequest(c.Request.Context(), userID, req.UserID)
	if errors.Is(err, repositories.ErrFriendshipExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "request already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send request"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AreaChat, "INFO", "friend request sent", requestIDFromContext(c), &userID)
	c.JSON(http.StatusCreated, gin.H{"friendship": friendship})
}

// Respond accepts or rejects a pending request addressed to the user.
func (h *FriendHandler) Respond(c *gin.Context) {
	friendshipID := c.Param("friendship_id")

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	friendship, err := h.friendRepo.Get(c.Request.Context(), friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	if friendship.AddresseeID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your request"})
		return
	}
	if friendship.Status != models.FriendshipPending {
		c.JSON(http.StatusConflict, gin.H{"error": "request already answered"})
		return
	}

	if !req.Accept {
		if err := h.friendRepo.Delete(c.Request.Context(), friendshipID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject request"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "rejected"})
		return
	}

	updated, err := h.friendRepo.UpdateStatus(c.Request.Context(), friendshipID, models.FriendshipAccepted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friendship": updated})
}

// Unfriend removes an accepted friendship the user is part of.
func (h *FriendHandler) Unfriend(c *gin.Context) {
	friendshipID := c.Param("friendship_id")
	userID := c.GetString("userID")

	friendship, err := h.friendRepo.Get(c.Request.Context(), friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "friendship not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friendship"})
		return
	}
	if friendship.RequesterID != userID && friendship.AddresseeID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your friendship"})
		return
	}

	if err := h.friendRepo.Delete(c.Request.Context(), friendshipID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove friendship"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// Block marks a friendship blocked. Either side can block; a blocked row is
// never listed as a friend and CreateRequest refuses to recreate the pair.
func (h *FriendHandler) Block(c *gin.Context) {
	friendshipID := c.Param("friendship_id")
	userID := c.GetString("userID")

	friendship, err := h.friendRepo.Get(c.Request.Context(), friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "friendship not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friendship"})
		return
	}
	if friendship.RequesterID != userID && friendship.AddresseeID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your friendship"})
		return
	}

	updated, err := h.friendRepo.UpdateStatus(c.Request.Context(), friendshipID, models.FriendshipBlocked)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not block"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AreaChat, "INFO", "friendship blocked", requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"friendship": updated})
}

// ListFriends returns the user's accepted friendships.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.GetString("userID")

	friends, err := h.friendRepo.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListPending returns requests awaiting the user's answer.
func (h *FriendHandler) ListPending(c *gin.Context) {
	userID := c.GetString("userID")

	pending, err := h.friendRepo.ListPending(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": pending})
}

// ListSent returns requests the user has issued.
func (h *FriendHandler) ListSent(c *gin.Context) {
	userID := c.GetString("userID")

	sent, err := h.friendRepo.ListSent(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": sent})
}
