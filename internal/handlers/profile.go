package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/media"
	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
	"bodygoal/internal/repositories"
)

const maxAvatarBytes = 5 << 20

// ProfileHandler manages the user profile and avatar.
type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	storage     *media.Storage
	events      realtime.Publisher
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profileRepo repositories.ProfileRepository, storage *media.Storage, events realtime.Publisher) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, storage: storage, events: events}
}

// Get returns the authenticated user's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := c.GetString("userID")

	profile, err := h.profileRepo.Get(c.Request.Context(), userID)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Update replaces the editable profile fields and notifies open chat
// sessions so rendered sender metadata stays current.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Name          string   `json:"name"`
		Age           *int     `json:"age"`
		Height        *float64 `json:"height"`
		Weight        *float64 `json:"weight"`
		Gender        *string  `json:"gender"`
		ActivityLevel *string  `json:"activity_level"`
		Goal          *string  `json:"goal"`
		TargetWeight  *float64 `json:"target_weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileRepo.Update(c.Request.Context(), models.Profile{
		UserID:        userID,
		Name:          req.Name,
		Age:           req.Age,
		Height:        req.Height,
		Weight:        req.Weight,
		Gender:        req.Gender,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
		TargetWeight:  req.TargetWeight,
	})
	if errors.Is(err, repositories.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	h.publishProfileChange(c, profile)
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UploadAvatar stores a new avatar image and updates the profile reference.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("userID")

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read avatar"})
		return
	}
	defer file.Close()

	stored, err := h.storage.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), userID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}

	avatarURL := h.storage.PublicURL(stored.ID)
	if err := h.profileRepo.SetAvatarURL(c.Request.Context(), userID, avatarURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	profile, err := h.profileRepo.Get(c.Request.Context(), userID)
	if err == nil {
		h.publishProfileChange(c, profile)
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}

// Search finds profiles by name for the friend picker.
func (h *ProfileHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	results, err := h.profileRepo.Search(c.Request.Context(), query, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": results})
}

func (h *ProfileHandler) publishProfileChange(c *gin.Context, profile models.Profile) {
	sender := models.Sender{UserID: profile.UserID, Name: profile.Name, AvatarURL: profile.AvatarURL}
	ev, err := realtime.Update(realtime.TableProfiles, nil, sender)
	if err != nil {
		log.Printf("profile change event build failed: %v", err)
		return
	}
	h.events.PublishChange(c.Request.Context(), ev)
}
