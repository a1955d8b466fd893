package models

import "time"

// Friendship states.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipBlocked  = "blocked"
)

// Friendship is a directed request that becomes symmetric once accepted.
type Friendship struct {
	ID          string    `db:"id" json:"id"`
	RequesterID string    `db:"requester_id" json:"requester_id"`
	AddresseeID string    `db:"addressee_id" json:"addressee_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FriendshipView adds the other side's display data for list endpoints.
type FriendshipView struct {
	Friendship
	Friend Sender `json:"friend"`
}
