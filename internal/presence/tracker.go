package presence

import (
	"context"
	"log"
	"sync"
	"time"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithPollInterval overrides the poll cadence.
func WithPollInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.poll = d }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// Tracker exposes a live userID -> online mapping for a watched set of users.
// Two independent triggers keep it fresh: a poll (time alone can expire an
// online claim) and push events from the realtime feed. Both recompute the
// same pure formula over stored timestamps, so they can race freely and
// last-write-wins is safe.
type Tracker struct {
	store Store
	feed  *realtime.Feed
	poll  time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	watched  map[string]struct{}
	statuses map[string]bool
	closed   bool

	updates chan map[string]bool

	cancelWatch context.CancelFunc
	watchDone   chan struct{}
}

// NewTracker builds a tracker with an empty watch set.
func NewTracker(store Store, feed *realtime.Feed, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:    store,
		feed:     feed,
		poll:     PollInterval,
		now:      time.Now,
		watched:  make(map[string]struct{}),
		statuses: make(map[string]bool),
		updates:  make(chan map[string]bool, 16),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Watch replaces the watched ID set: it cancels any prior poll and push
// subscription, refetches, and resubscribes. Users with no presence record
// appear as offline, never as missing keys.
func (t *Tracker) Watch(ctx context.Context, ids []string) {
	t.stopWatch()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.watched = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		t.watched[id] = struct{}{}
	}
	t.statuses = make(map[string]bool, len(ids))
	for _, id := range ids {
		t.statuses[id] = false
	}
	t.mu.Unlock()

	t.refresh(ctx)
	t.emit()

	if len(ids) == 0 {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancelWatch = cancel
	t.watchDone = done

	sub := t.feed.Subscribe(realtime.TablePresence)
	go func() {
		defer close(done)
		defer sub.Close()

		ticker := time.NewTicker(t.poll)
		defer ticker.Stop()

		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				t.handleEvent(ev)
			case <-ticker.C:
				if t.refresh(watchCtx) {
					t.emit()
				}
			}
		}
	}()
}

// Snapshot returns a copy of the current mapping.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]bool, len(t.statuses))
	for id, online := range t.statuses {
		out[id] = online
	}
	return out
}

// Updates streams a full snapshot after every change. When a slow consumer
// fills the buffer the oldest queued snapshot is evicted, so intermediates
// may be missed but the newest state is always queued.
func (t *Tracker) Updates() <-chan map[string]bool {
	return t.updates
}

// Close cancels polling and the push subscription. Events arriving after
// Close mutate nothing.
func (t *Tracker) Close() {
	t.stopWatch()
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.updates)
	}
	t.mu.Unlock()
}

func (t *Tracker) stopWatch() {
	if t.cancelWatch != nil {
		t.cancelWatch()
		<-t.watchDone
		t.cancelWatch = nil
		t.watchDone = nil
	}
}

// refresh recomputes every watched status from a bulk fetch. Returns whether
// anything changed. Fetch failures keep the last known mapping.
func (t *Tracker) refresh(ctx context.Context) bool {
	t.mu.RLock()
	ids := make([]string, 0, len(t.watched))
	for id := range t.watched {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	if len(ids) == 0 {
		return false
	}

	records, err := t.store.Query(ctx, ids)
	if err != nil {
		log.Printf("presence tracker fetch failed: %v", err)
		return false
	}

	byUser := make(map[string]models.PresenceRecord, len(records))
	for _, rec := range records {
		byUser[rec.UserID] = rec
	}

	now := t.now()
	changed := false
	t.mu.Lock()
	for _, id := range ids {
		online := false
		if rec, ok := byUser[id]; ok {
			online = EffectivelyOnline(rec, now)
		}
		if t.statuses[id] != online {
			t.statuses[id] = online
			changed = true
		}
	}
	t.mu.Unlock()
	return changed
}

// handleEvent recomputes a single user from a pushed change. The pushed
// status field is not trusted on its own; the freshness formula decides.
func (t *Tracker) handleEvent(ev realtime.ChangeEvent) {
	var rec models.PresenceRecord
	if ev.Type == realtime.EventDelete {
		if err := ev.DecodeBefore(&rec); err != nil {
			return
		}
	} else {
		if err := ev.DecodeAfter(&rec); err != nil {
			return
		}
	}

	t.mu.Lock()
	if _, ok := t.watched[rec.UserID]; !ok {
		t.mu.Unlock()
		return
	}
	online := false
	if ev.Type != realtime.EventDelete {
		online = EffectivelyOnline(rec, t.now())
	}
	changed := t.statuses[rec.UserID] != online
	t.statuses[rec.UserID] = online
	t.mu.Unlock()

	if changed {
		t.emit()
	}
}

func (t *Tracker) emit() {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return
	}
	snapshot := make(map[string]bool, len(t.statuses))
	for id, online := range t.statuses {
		snapshot[id] = online
	}
	// Send under the read lock so Close (which holds the write lock while
	// closing the channel) cannot race a send.
	select {
	case t.updates <- snapshot:
	default:
		// Buffer full: evict the oldest queued snapshot so the newest one
		// lands. A slow consumer loses intermediates, never the final state.
		select {
		case <-t.updates:
		default:
		}
		select {
		case t.updates <- snapshot:
		default:
		}
	}
	t.mu.RUnlock()
}
