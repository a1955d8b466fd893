package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bodygoal/internal/models"
)

// PresenceRepository is the shared presence store. Rows are upserted by
// user_id and never deleted.
type PresenceRepository interface {
	Upsert(ctx context.Context, rec models.PresenceRecord) error
	Query(ctx context.Context, userIDs []string) ([]models.PresenceRecord, error)
	SweepStale(ctx context.Context, cutoff, seenAt time.Time) ([]models.PresenceRecord, error)
}

// PresenceRepo is a sqlx-backed repository.
type PresenceRepo struct {
	db *sqlx.DB
}

// NewPresenceRepo constructs PresenceRepo.
func NewPresenceRepo(db *sqlx.DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

// Upsert writes a presence record keyed by user.
func (r *PresenceRepo) Upsert(ctx context.Context, rec models.PresenceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_presence (user_id, status, last_seen, last_activity, updated_at)
         VALUES ($1, $2, $3, $4, NOW())
         ON CONFLICT (user_id) DO UPDATE
            SET status=EXCLUDED.status, last_seen=EXCLUDED.last_seen,
                last_activity=EXCLUDED.last_activity, updated_at=NOW()`,
		rec.UserID, rec.Status, rec.LastSeen, rec.LastActivity)
	return err
}

// Query bulk-fetches records for a set of users. Absent users simply have no
// row; that is not an error.
func (r *PresenceRepo) Query(ctx context.Context, userIDs []string) ([]models.PresenceRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var records []models.PresenceRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT user_id, status, last_seen, last_activity, updated_at
         FROM user_presence WHERE user_id = ANY($1)`, pq.Array(userIDs))
	return records, err
}

// SweepStale flips online rows whose last_activity predates cutoff and
// returns the flipped records. The predicate self-stabilizes: a flipped row
// no longer matches, so concurrent sweeps are safe.
func (r *PresenceRepo) SweepStale(ctx context.Context, cutoff, seenAt time.Time) ([]models.PresenceRecord, error) {
	var flipped []models.PresenceRecord
	err := r.db.SelectContext(ctx, &flipped,
		`UPDATE user_presence SET status=$1, last_seen=$2, updated_at=NOW()
         WHERE status=$3 AND last_activity < $4
         RETURNING user_id, status, last_seen, last_activity, updated_at`,
		models.StatusOffline, seenAt, models.StatusOnline, cutoff)
	return flipped, err
}
