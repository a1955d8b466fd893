package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bodygoal/internal/auth"
	"bodygoal/internal/chat"
	"bodygoal/internal/models"
	"bodygoal/internal/observability"
	"bodygoal/internal/realtime"
	"bodygoal/internal/repositories"
)

// ChatWebSocketHandler serves live conversation sockets. Each connection
// gets its own chat session feeding it appends and profile patches.
type ChatWebSocketHandler struct {
	hub         *Hub
	authService *auth.Service
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	profileRepo repositories.ProfileRepository
	feed        *realtime.Feed
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, authService *auth.Service, chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, profileRepo repositories.ProfileRepository, feed *realtime.Feed) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		hub:         hub,
		authService: authService,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		feed:        feed,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, opens a session for the chat, and streams
// transcript changes until the client disconnects.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("bodygoal/ws").Start(c.Request.Context(), "ws.handshake", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := bearerUserID(c, h.authService)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	friendID, err := h.chatRepo.DirectPeer(ctx, chatID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
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
	h.hub.Add(KindChat, chatID, conn, info)

	observability.IncWSActive(KindChat)
	observability.IncWSEvent(KindChat, "ws_connect")
	publishSocketEvent(ctx, KindChat, chatID, info, "ws_connect", 0, "")

	session := chat.NewSession(h.messageRepo, h.profileRepo, h.chatRepo, h.feed, chatID, userID, friendID)
	session.OnAppend = func(view models.MessageView) {
		_ = h.hub.Send(KindChat, chatID, conn, models.ChatEvent{Type: "message", Message: &view})
		observability.IncWSEvent(KindChat, "message")
	}
	session.OnPatch = func(sender models.Sender) {
		_ = h.hub.Send(KindChat, chatID, conn, models.ChatEvent{Type: "profile", Sender: &sender})
		observability.IncWSEvent(KindChat, "profile")
	}

	if err := session.Open(ctx); err != nil {
		_ = h.hub.Send(KindChat, chatID, conn, gin.H{"type": "error", "error": "failed to open chat"})
		h.teardown(conn, nil, chatID, info, "open_failed")
		return
	}

	_ = h.hub.Send(KindChat, chatID, conn, models.ChatEvent{Type: "history", Messages: session.Transcript()})

	go func() {
		var closeReason string
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				break
			}
		}
		h.teardown(conn, session, chatID, info, closeReason)
	}()
}

func (h *ChatWebSocketHandler) teardown(conn *websocket.Conn, session *chat.Session, chatID string, info ConnInfo, reason string) {
	if session != nil {
		session.Close()
	}
	conn.Close()
	h.hub.Remove(KindChat, chatID, conn)
	observability.DecWSActive(KindChat)
	observability.IncWSEvent(KindChat, "ws_disconnect")
	publishSocketEvent(context.Background(), KindChat, chatID, info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), reason)
}
