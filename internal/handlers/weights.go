package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/models"
	"bodygoal/internal/repositories"
)

// WeightHandler manages the weight tracker.
type WeightHandler struct {
	weightRepo repositories.WeightRepository
}

// NewWeightHandler builds a WeightHandler.
func NewWeightHandler(weightRepo repositories.WeightRepository) *WeightHandler {
	return &WeightHandler{weightRepo: weightRepo}
}

// Create records a weight data point.
func (h *WeightHandler) Create(c *gin.Context) {
	var req struct {
		Weight float64    `json:"weight" binding:"required"`
		Date   *time.Time `json:"date"`
		Notes  *string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Weight <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be positive"})
		return
	}

	rec := models.WeightRecord{
		UserID: c.GetString("userID"),
		Weight: req.Weight,
		Notes:  req.Notes,
	}
	if req.Date != nil {
		rec.Date = *req.Date
	}

	stored, err := h.weightRepo.Create(c.Request.Context(), rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store record"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": stored})
}

// List returns the user's history, optionally limited to the last N days.
func (h *WeightHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	var since time.Time
	if days := intQuery(c, "days", 0); days > 0 {
		since = time.Now().AddDate(0, 0, -days)
	}
	limit := intQuery(c, "limit", 500)

	records, err := h.weightRepo.List(c.Request.Context(), userID, since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Delete removes one of the user's records.
func (h *WeightHandler) Delete(c *gin.Context) {
	recordID := c.Param("record_id")
	userID := c.GetString("userID")

	err := h.weightRepo.Delete(c.Request.Context(), recordID, userID)
	if errors.Is(err, repositories.ErrWeightNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
