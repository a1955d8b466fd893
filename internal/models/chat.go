package models

import "time"

// Chat types.
const (
	ChatDirect = "direct"
	ChatGroup  = "group"
)

// Chat is a conversation container; members live in chat_participants.
type Chat struct {
	ID            string    `db:"id" json:"id"`
	Type          string    `db:"type" json:"type"`
	Name          *string   `db:"name" json:"name,omitempty"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
}

// ChatParticipant is a membership row with per-user read state.
type ChatParticipant struct {
	ChatID     string     `db:"chat_id" json:"chat_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	IsAdmin    bool       `db:"is_admin" json:"is_admin"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`
	LastReadAt *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
}

// ChatSummary is the API view of a direct chat for one user.
type ChatSummary struct {
	ChatID        string    `db:"chat_id" json:"chat_id"`
	FriendID      string    `db:"friend_id" json:"friend_id"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
