package ws

import "testing"

func TestHubAddAndRemove(t *testing.T) {
	hub := NewHub()

	hub.Add(KindChat, "chat-1", nil, ConnInfo{UserID: "user-1"})
	if hub.Count(KindChat, "chat-1") != 1 {
		t.Fatalf("expected one connection in the room")
	}
	if len(hub.writeLocks) != 1 {
		t.Fatalf("expected a write lock for the connection")
	}

	hub.Remove(KindChat, "chat-1", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room to be dropped")
	}
	if len(hub.writeLocks) != 0 {
		t.Fatalf("expected write lock to be released")
	}
}

func TestHubRoomsAreIsolatedByKind(t *testing.T) {
	hub := NewHub()

	hub.Add(KindChat, "1", nil, ConnInfo{UserID: "user-1"})
	if hub.Count(KindPresence, "1") != 0 {
		t.Fatalf("presence room must not see chat connections")
	}
}

func TestHubSendToUnknownConnFails(t *testing.T) {
	hub := NewHub()

	if err := hub.Send(KindChat, "chat-1", nil, map[string]string{"type": "ping"}); err == nil {
		t.Fatalf("expected error for unregistered connection")
	}
}
