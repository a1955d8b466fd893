package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

// fakeStore is an in-memory presence store with optional forced errors.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]models.PresenceRecord
	err     error

	lastCutoff time.Time
	lastSeenAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]models.PresenceRecord)}
}

func (s *fakeStore) Upsert(_ context.Context, rec models.PresenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records[rec.UserID] = rec
	return nil
}

func (s *fakeStore) Query(_ context.Context, userIDs []string) ([]models.PresenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.PresenceRecord
	for _, id := range userIDs {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) SweepStale(_ context.Context, cutoff, seenAt time.Time) ([]models.PresenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.lastCutoff = cutoff
	s.lastSeenAt = seenAt
	var flipped []models.PresenceRecord
	for id, rec := range s.records {
		if rec.Status == models.StatusOnline && rec.LastActivity.Before(cutoff) {
			rec.Status = models.StatusOffline
			rec.LastSeen = seenAt
			s.records[id] = rec
			flipped = append(flipped, rec)
		}
	}
	return flipped, nil
}

func (s *fakeStore) set(rec models.PresenceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec
}

// capturePublisher records published change events.
type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (p *capturePublisher) PublishChange(_ context.Context, ev realtime.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) all() []realtime.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.ChangeEvent, len(p.events))
	copy(out, p.events)
	return out
}

func TestEffectivelyOnline(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   string
		activity time.Time
		want     bool
	}{
		{"fresh online", models.StatusOnline, now.Add(-10 * time.Second), true},
		{"online at the window edge", models.StatusOnline, now.Add(-FreshnessWindow), true},
		{"stale online claim", models.StatusOnline, now.Add(-FreshnessWindow - time.Second), false},
		{"fresh but offline", models.StatusOffline, now.Add(-time.Second), false},
		{"fresh but away", models.StatusAway, now.Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := models.PresenceRecord{UserID: "u1", Status: tt.status, LastActivity: tt.activity}
			assert.Equal(t, tt.want, EffectivelyOnline(rec, now))
		})
	}
}

func TestWriterMarkOnlineWritesAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &capturePublisher{}
	writer := NewWriter(store, pub, "u1")

	writer.MarkOnline(context.Background())

	rec, err := store.Query(context.Background(), []string{"u1"})
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, models.StatusOnline, rec[0].Status)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventUpdate, events[0].Type)
	assert.Equal(t, realtime.TablePresence, events[0].Table)
}

func TestWriterSwallowsStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("db down")
	pub := &capturePublisher{}
	writer := NewWriter(store, pub, "u1")

	writer.MarkOnline(context.Background())
	writer.MarkOffline(context.Background())

	// A failed write publishes nothing; the next heartbeat self-heals.
	assert.Empty(t, pub.all())
}

func TestWriterRunMarksOfflineOnCancel(t *testing.T) {
	store := newFakeStore()
	writer := NewWriter(store, nil, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		writer.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		recs, _ := store.Query(context.Background(), []string{"u1"})
		return len(recs) == 1 && recs[0].Status == models.StatusOnline
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	recs, err := store.Query(context.Background(), []string{"u1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.StatusOffline, recs[0].Status)
}
