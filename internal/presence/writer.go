package presence

import (
	"context"
	"log"
	"time"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

// Writer announces and retracts one user's online state. All writes are
// best-effort: a missed heartbeat self-heals at the next tick, a missed
// offline write self-heals via the reconciler.
type Writer struct {
	userID   string
	store    Store
	events   realtime.Publisher
	interval time.Duration
	now      func() time.Time
}

// NewWriter builds a heartbeat writer for one user.
func NewWriter(store Store, events realtime.Publisher, userID string) *Writer {
	return &Writer{
		userID:   userID,
		store:    store,
		events:   events,
		interval: HeartbeatInterval,
		now:      time.Now,
	}
}

// MarkOnline idempotently upserts an online record with fresh timestamps.
func (w *Writer) MarkOnline(ctx context.Context) {
	now := w.now()
	w.write(ctx, models.PresenceRecord{
		UserID:       w.userID,
		Status:       models.StatusOnline,
		LastSeen:     now,
		LastActivity: now,
	})
}

// MarkOffline records an explicit departure.
func (w *Writer) MarkOffline(ctx context.Context) {
	now := w.now()
	w.write(ctx, models.PresenceRecord{
		UserID:       w.userID,
		Status:       models.StatusOffline,
		LastSeen:     now,
		LastActivity: now,
	})
}

func (w *Writer) write(ctx context.Context, rec models.PresenceRecord) {
	if err := w.store.Upsert(ctx, rec); err != nil {
		// Presence is approximate, never a correctness channel.
		log.Printf("presence write failed for %s: %v", w.userID, err)
		return
	}
	if w.events != nil {
		if ev, err := realtime.Update(realtime.TablePresence, nil, rec); err == nil {
			w.events.PublishChange(ctx, ev)
		}
	}
}

// Run marks the user online immediately, heartbeats on the interval, and
// marks them offline when ctx is cancelled.
func (w *Writer) Run(ctx context.Context) {
	w.MarkOnline(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The caller's ctx is gone; give the farewell write its own.
			offCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.MarkOffline(offCtx)
			cancel()
			return
		case <-ticker.C:
			w.MarkOnline(ctx)
		}
	}
}
