package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/llm"
)

const maxPhotoBytes = 10 << 20

// PhotoAnalyzer is the slice of the LLM client photo analysis needs.
type PhotoAnalyzer interface {
	AnalyzeFoodPhoto(ctx context.Context, imageBase64 string) (llm.PhotoAnalysis, error)
}

// PhotoHandler estimates nutrition from food photos.
type PhotoHandler struct {
	analyzer PhotoAnalyzer
}

// NewPhotoHandler builds a PhotoHandler.
func NewPhotoHandler(analyzer PhotoAnalyzer) *PhotoHandler {
	return &PhotoHandler{analyzer: analyzer}
}

// Analyze accepts a photo upload or a base64 body and returns the model's
// nutrition estimate.
func (h *PhotoHandler) Analyze(c *gin.Context) {
	imageBase64, err := photoPayload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.analyzer.AnalyzeFoodPhoto(c.Request.Context(), imageBase64)
	if errors.Is(err, llm.ErrRateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "analysis is busy, retry later"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

func photoPayload(c *gin.Context) (string, error) {
	if fileHeader, err := c.FormFile("photo"); err == nil {
		if fileHeader.Size > maxPhotoBytes {
			return "", errors.New("photo too large")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return "", errors.New("could not read photo")
		}
		defer file.Close()

		raw, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
		if err != nil {
			return "", errors.New("could not read photo")
		}
		return base64.StdEncoding.EncodeToString(raw), nil
	}

	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", errors.New("photo file or image_base64 is required")
	}
	return req.ImageBase64, nil
}
