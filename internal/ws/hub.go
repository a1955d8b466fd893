package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bodygoal/internal/observability"
)

// Room kinds.
const (
	KindChat     = "chat"
	KindPresence = "presence"
)

// Hub tracks live websocket connections per room. Fan-out happens through
// the realtime feed; each connection has its own listener pushing to it, so
// the hub only does registration, per-connection writes, and error cleanup.
type Hub struct {
	mu            sync.RWMutex
	rooms         map[string]map[*websocket.Conn]ConnInfo
	writeLocks    map[*websocket.Conn]*sync.Mutex
	writeDeadline time.Duration
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:         make(map[string]map[*websocket.Conn]ConnInfo),
		writeLocks:    make(map[*websocket.Conn]*sync.Mutex),
		writeDeadline: 10 * time.Second,
	}
}

func roomKey(kind, roomID string) string {
	return kind + ":" + roomID
}

// Add registers a connection in a room.
func (h *Hub) Add(kind, roomID string, conn *websocket.Conn, info ConnInfo) {
	key := roomKey(kind, roomID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[key][conn] = info
	h.writeLocks[conn] = &sync.Mutex{}
}

// Remove deregisters a connection.
func (h *Hub) Remove(kind, roomID string, conn *websocket.Conn) {
	key := roomKey(kind, roomID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[key]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, key)
		}
	}
	delete(h.writeLocks, conn)
}

// Count reports the number of live connections in a room.
func (h *Hub) Count(kind, roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey(kind, roomID)])
}

// Send writes one JSON payload to one connection. On write failure the
// connection is closed, removed from the room, and a ws_error event is
// published.
func (h *Hub) Send(kind, roomID string, conn *websocket.Conn, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	lock := h.writeLocks[conn]
	h.mu.RUnlock()
	if lock == nil {
		return websocket.ErrCloseSent
	}

	lock.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeDeadline))
	err = conn.WriteMessage(websocket.TextMessage, body)
	lock.Unlock()

	if err != nil {
		log.Printf("websocket write error: %v", err)
		conn.Close()
		h.publishWSError(kind, roomID, conn, err)
		h.Remove(kind, roomID, conn)
	}
	return err
}

func (h *Hub) publishWSError(kind, roomID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, roomID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": roomID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind, roomID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	infos, ok := h.rooms[roomKey(kind, roomID)]
	if !ok {
		return ConnInfo{}, false
	}
	info, exists := infos[conn]
	return info, exists
}

func wsRoutingKey(kind string) string {
	if kind == KindPresence {
		return "ws_events.presence"
	}
	return "ws_events.chats"
}
