package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/media"
)

// MediaHandler serves stored attachments and avatars.
type MediaHandler struct {
	storage *media.Storage
}

// NewMediaHandler builds a MediaHandler.
func NewMediaHandler(storage *media.Storage) *MediaHandler {
	return &MediaHandler{storage: storage}
}

// Download streams a stored file to the client.
func (h *MediaHandler) Download(c *gin.Context) {
	fileID := c.Param("file_id")

	var buf bytes.Buffer
	file, err := h.storage.Download(c.Request.Context(), fileID, &buf)
	if errors.Is(err, media.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load file"})
		return
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+file.Filename+`"`)
	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
