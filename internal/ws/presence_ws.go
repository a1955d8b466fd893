package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bodygoal/internal/auth"
	"bodygoal/internal/observability"
	"bodygoal/internal/presence"
	"bodygoal/internal/realtime"
)

const maxWatchedIDs = 100

// PresenceWebSocketHandler streams online/offline flips for a watched set of
// users. While the socket is open the connecting user is kept online by a
// server-side heartbeat writer; closing the socket marks them offline.
type PresenceWebSocketHandler struct {
	hub         *Hub
	authService *auth.Service
	store       presence.Store
	feed        *realtime.Feed
	events      realtime.Publisher
}

// NewPresenceWebSocketHandler constructs a PresenceWebSocketHandler.
func NewPresenceWebSocketHandler(hub *Hub, authService *auth.Service, store presence.Store, feed *realtime.Feed, events realtime.Publisher) *PresenceWebSocketHandler {
	return &PresenceWebSocketHandler{
		hub:         hub,
		authService: authService,
		store:       store,
		feed:        feed,
		events:      events,
	}
}

type presenceFrame struct {
	Type     string          `json:"type"`
	Statuses map[string]bool `json:"statuses,omitempty"`
}

type watchRequest struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
}

// Handle upgrades the connection and streams presence updates until the
// client disconnects.
func (h *PresenceWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("bodygoal/ws").Start(c.Request.Context(), "ws.handshake", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := bearerUserID(c, h.authService)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ids := parseWatchedIDs(c.Query("ids"))
	if len(ids) > maxWatchedIDs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many ids"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(KindPresence, userID, conn, info)

	observability.IncWSActive(KindPresence)
	observability.IncWSEvent(KindPresence, "ws_connect")
	publishSocketEvent(ctx, KindPresence, userID, info, "ws_connect", 0, "")

	connCtx, cancel := context.WithCancel(context.Background())

	// The connecting user is online for exactly as long as the socket lives.
	writer := presence.NewWriter(h.store, h.events, userID)
	go writer.Run(connCtx)

	tracker := presence.NewTracker(h.store, h.feed)
	tracker.Watch(connCtx, ids)

	_ = h.hub.Send(KindPresence, userID, conn, presenceFrame{Type: "snapshot", Statuses: tracker.Snapshot()})

	go func() {
		for statuses := range tracker.Updates() {
			if err := h.hub.Send(KindPresence, userID, conn, presenceFrame{Type: "presence", Statuses: statuses}); err != nil {
				return
			}
			observability.IncWSEvent(KindPresence, "presence")
		}
	}()

	go func() {
		var closeReason string
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				break
			}
			var req watchRequest
			if err := json.Unmarshal(payload, &req); err != nil || req.Type != "watch" {
				continue
			}
			if len(req.IDs) > maxWatchedIDs {
				continue
			}
			tracker.Watch(connCtx, req.IDs)
			_ = h.hub.Send(KindPresence, userID, conn, presenceFrame{Type: "snapshot", Statuses: tracker.Snapshot()})
		}

		cancel()
		tracker.Close()
		conn.Close()
		h.hub.Remove(KindPresence, userID, conn)
		observability.DecWSActive(KindPresence)
		observability.IncWSEvent(KindPresence, "ws_disconnect")
		publishSocketEvent(context.Background(), KindPresence, userID, info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason)
	}()
}

func parseWatchedIDs(raw string) []string {
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
