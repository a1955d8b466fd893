package presence

import (
	"context"
	"time"

	"bodygoal/internal/models"
)

// Presence timing. FreshnessWindow is what readers trust; CleanupThreshold is
// deliberately larger so the reconciler never races a reader's own staleness
// judgment at the boundary.
const (
	HeartbeatInterval = 15 * time.Second
	FreshnessWindow   = 45 * time.Second
	CleanupThreshold  = 60 * time.Second
	SweepInterval     = 15 * time.Second
	PollInterval      = 5 * time.Second
)

// Store is the narrow slice of the presence store this package needs.
type Store interface {
	Upsert(ctx context.Context, rec models.PresenceRecord) error
	Query(ctx context.Context, userIDs []string) ([]models.PresenceRecord, error)
	SweepStale(ctx context.Context, cutoff, seenAt time.Time) ([]models.PresenceRecord, error)
}

// EffectivelyOnline reports whether a record should be shown as online. A
// stale last_activity overrides a stored "online" claim; that covers clients
// that died without writing a final offline.
func EffectivelyOnline(rec models.PresenceRecord, now time.Time) bool {
	return rec.Status == models.StatusOnline && now.Sub(rec.LastActivity) <= FreshnessWindow
}
