package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bodygoal/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository manages conversations and membership.
type ChatRepository interface {
	CreateOrGetDirectChat(ctx context.Context, userID, friendID string) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	DirectPeer(ctx context.Context, chatID, userID string) (string, error)
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
	MarkRead(ctx context.Context, chatID, userID string) error
	TouchLastMessage(ctx context.Context, chatID string) error
}

// ChatRepo is a sqlx-backed repository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, type, name, created_by, created_at, last_message_at`

// CreateOrGetDirectChat returns the existing direct chat between the two
// users, creating it together with both participant rows when absent.
func (r *ChatRepo) CreateOrGetDirectChat(ctx context.Context, userID, friendID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT c.id, c.type, c.name, c.created_by, c.created_at, c.last_message_at
         FROM chats c
         JOIN chat_participants a ON a.chat_id=c.id AND a.user_id=$1
         JOIN chat_participants b ON b.chat_id=c.id AND b.user_id=$2
         WHERE c.type=$3
         LIMIT 1`,
		userID, friendID, models.ChatDirect)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO chats (id, type, created_by)
         VALUES ($1, $2, $3)
         RETURNING `+chatColumns,
		uuid.NewString(), models.ChatDirect, userID,
	).StructScan(&chat)
	if err != nil {
		return models.Chat{}, err
	}

	for _, member := range []string{userID, friendID} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`,
			chat.ID, member); err != nil {
			return models.Chat{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches one chat row.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant reports whether the user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`,
		chatID, userID)
	return exists, err
}

// DirectPeer returns the other participant of a direct chat.
func (r *ChatRepo) DirectPeer(ctx context.Context, chatID, userID string) (string, error) {
	var peer string
	err := r.db.GetContext(ctx, &peer,
		`SELECT user_id FROM chat_participants WHERE chat_id=$1 AND user_id <> $2 LIMIT 1`,
		chatID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrChatNotFound
	}
	return peer, err
}

// ListChats returns the user's direct chats, most recently active first.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT c.id AS chat_id, o.user_id AS friend_id, c.last_message_at, c.created_at
         FROM chats c
         JOIN chat_participants m ON m.chat_id=c.id AND m.user_id=$1
         JOIN chat_participants o ON o.chat_id=c.id AND o.user_id <> $1
         WHERE c.type=$2
         ORDER BY c.last_message_at DESC`,
		userID, models.ChatDirect)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.ChatSummary
	for rows.Next() {
		var summary models.ChatSummary
		if err := rows.StructScan(&summary); err != nil {
			return nil, err
		}
		chats = append(chats, summary)
	}
	return chats, rows.Err()
}

// MarkRead stamps the user's read pointer for the chat.
func (r *ChatRepo) MarkRead(ctx context.Context, chatID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_participants SET last_read_at=NOW() WHERE chat_id=$1 AND user_id=$2`,
		chatID, userID)
	return err
}

// TouchLastMessage bumps the chat's activity timestamp.
func (r *ChatRepo) TouchLastMessage(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_at=NOW() WHERE id=$1`, chatID)
	return err
}
