package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/observability"
	"bodygoal/internal/presence"
	"bodygoal/internal/realtime"
)

// PresenceHandler exposes the REST presence surface for clients that do not
// hold a presence websocket.
type PresenceHandler struct {
	store  presence.Store
	events realtime.Publisher
	now    func() time.Time
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(store presence.Store, events realtime.Publisher) *PresenceHandler {
	return &PresenceHandler{store: store, events: events, now: time.Now}
}

// Heartbeat records an online beat for the authenticated user. Writes are
// fire-and-forget: a failed beat self-heals at the next one, so the client
// always gets a 204.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID := c.GetString("userID")

	writer := presence.NewWriter(h.store, h.events, userID)
	writer.MarkOnline(c.Request.Context())
	observability.IncPresenceHeartbeat()

	c.Status(http.StatusNoContent)
}

// Offline records an explicit departure for the authenticated user.
func (h *PresenceHandler) Offline(c *gin.Context) {
	userID := c.GetString("userID")

	writer := presence.NewWriter(h.store, h.events, userID)
	writer.MarkOffline(c.Request.Context())

	c.Status(http.StatusNoContent)
}

// Status reports effective online flags for a set of user ids. Users with no
// presence row are offline.
func (h *PresenceHandler) Status(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	if len(ids) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many ids"})
		return
	}

	records, err := h.store.Query(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	now := h.now()
	statuses := make(map[string]bool, len(ids))
	for _, id := range ids {
		statuses[id] = false
	}
	for _, rec := range records {
		statuses[rec.UserID] = presence.EffectivelyOnline(rec, now)
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
