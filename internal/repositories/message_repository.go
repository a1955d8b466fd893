package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bodygoal/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("not the message owner")
)

// MessageRepository persists chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	ListRecent(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID, senderID, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID, senderID string) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, message_type, file_url, file_name, file_size, is_edited, is_deleted, created_at`

// CreateMessage inserts a message and returns the stored row.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.MessageType == "" {
		msg.MessageType = models.MessageText
	}
	var stored models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, content, message_type, file_url, file_name, file_size)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING `+messageColumns,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.MessageType,
		msg.FileURL, msg.FileName, msg.FileSize,
	).StructScan(&stored)
	return stored, err
}

// GetMessage fetches one message row.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListRecent returns a page of messages, newest first. Deleted messages are
// excluded.
func (r *MessageRepo) ListRecent(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages,
		`SELECT `+messageColumns+` FROM messages
         WHERE chat_id=$1 AND is_deleted=FALSE
         ORDER BY created_at DESC
         LIMIT $2 OFFSET $3`,
		chatID, limit, offset)
	return messages, err
}

// EditMessage replaces the content of the sender's own message.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID, senderID, content string) (models.Message, error) {
	msg, err := r.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != senderID {
		return models.Message{}, ErrNotMessageOwner
	}
	var updated models.Message
	err = r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$2, is_edited=TRUE WHERE id=$1 AND is_deleted=FALSE
         RETURNING `+messageColumns, messageID, content,
	).StructScan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return updated, err
}

// DeleteMessage soft-deletes the sender's own message.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID, senderID string) (models.Message, error) {
	msg, err := r.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != senderID {
		return models.Message{}, ErrNotMessageOwner
	}
	var updated models.Message
	err = r.db.QueryRowxContext(ctx,
		`UPDATE messages SET is_deleted=TRUE, content=NULL WHERE id=$1
         RETURNING `+messageColumns, messageID,
	).StructScan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return updated, err
}
