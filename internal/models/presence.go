package models

import "time"

// Presence status values. A stored "online" is only a claim; readers must
// combine it with last_activity freshness before trusting it.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
)

// PresenceRecord is one row of the shared presence store, upserted by the
// owning client's heartbeat and force-flipped by the staleness sweep.
type PresenceRecord struct {
	UserID       string    `db:"user_id" json:"user_id"`
	Status       string    `db:"status" json:"status"`
	LastSeen     time.Time `db:"last_seen" json:"last_seen"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
