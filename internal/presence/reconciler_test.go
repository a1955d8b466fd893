package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

func TestSweepFlipsStaleOnlineRecords(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.set(models.PresenceRecord{UserID: "stale", Status: models.StatusOnline, LastActivity: now.Add(-2 * time.Minute)})
	store.set(models.PresenceRecord{UserID: "fresh", Status: models.StatusOnline, LastActivity: now.Add(-10 * time.Second)})
	store.set(models.PresenceRecord{UserID: "gone", Status: models.StatusOffline, LastActivity: now.Add(-2 * time.Minute)})

	pub := &capturePublisher{}
	r := NewReconciler(store, pub)
	r.now = func() time.Time { return now }

	flipped, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventUpdate, events[0].Type)
	assert.Equal(t, realtime.TablePresence, events[0].Table)

	var rec models.PresenceRecord
	require.NoError(t, events[0].DecodeAfter(&rec))
	assert.Equal(t, "stale", rec.UserID)
	assert.Equal(t, models.StatusOffline, rec.Status)
}

func TestSweepUsesCleanupThreshold(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	r := NewReconciler(store, nil)
	r.now = func() time.Time { return now }

	_, err := r.Sweep(context.Background())
	require.NoError(t, err)

	// The sweep cutoff is looser than the reader freshness window, so the
	// reconciler never races a reader's own staleness judgment.
	assert.Equal(t, now.Add(-CleanupThreshold), store.lastCutoff)
	assert.Equal(t, now, store.lastSeenAt)
	assert.Greater(t, CleanupThreshold, FreshnessWindow)
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.set(models.PresenceRecord{UserID: "stale", Status: models.StatusOnline, LastActivity: now.Add(-5 * time.Minute)})

	r := NewReconciler(store, nil)
	r.now = func() time.Time { return now }

	first, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	// A flipped row no longer matches the predicate.
	second, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestSweepReturnsStoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("db down")

	r := NewReconciler(store, nil)
	_, err := r.Sweep(context.Background())
	require.Error(t, err)
}
