package models

import "time"

// Message types.
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageVideo = "video"
	MessageFile  = "file"
)

// Message is a chat message row. Media messages carry file metadata instead
// of (or alongside) text content.
type Message struct {
	ID          string    `db:"id" json:"id"`
	ChatID      string    `db:"chat_id" json:"chat_id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	Content     *string   `db:"content" json:"content,omitempty"`
	MessageType string    `db:"message_type" json:"message_type"`
	FileURL     *string   `db:"file_url" json:"file_url,omitempty"`
	FileName    *string   `db:"file_name" json:"file_name,omitempty"`
	FileSize    *int64    `db:"file_size" json:"file_size,omitempty"`
	IsEdited    bool      `db:"is_edited" json:"is_edited"`
	IsDeleted   bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MessageView pairs a message with the sender metadata resolved at display
// time. Sender is nil when resolution failed; delivery never waits for it.
type MessageView struct {
	Message
	Sender *Sender `json:"sender,omitempty"`
}

// ChatEvent is pushed to chat websocket clients.
type ChatEvent struct {
	Type     string        `json:"type"`
	Message  *MessageView  `json:"message,omitempty"`
	Messages []MessageView `json:"messages,omitempty"`
	Sender   *Sender       `json:"sender,omitempty"`
}
