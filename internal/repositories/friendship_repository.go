package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bodygoal/internal/models"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
)

// FriendshipRepository handles friend requests and the friend graph.
type FriendshipRepository interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID string) (models.Friendship, error)
	Get(ctx context.Context, friendshipID string) (models.Friendship, error)
	UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error)
	Delete(ctx context.Context, friendshipID string) error
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipView, error)
	ListPending(ctx context.Context, userID string) ([]models.FriendshipView, error)
	ListSent(ctx context.Context, userID string) ([]models.FriendshipView, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

// FriendshipRepo is a sqlx-backed repository.
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo constructs FriendshipRepo.
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

// CreateRequest inserts a pending request. A duplicate pair in either
// direction is rejected.
func (r *FriendshipRepo) CreateRequest(ctx context.Context, requesterID, addresseeID string) (models.Friendship, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships
            WHERE (requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1))`,
		requesterID, addresseeID)
	if err != nil {
		return models.Friendship{}, err
	}
	if exists {
		return models.Friendship{}, ErrFriendshipExists
	}

	var friendship models.Friendship
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO friendships (id, requester_id, addressee_id, status)
         VALUES ($1, $2, $3, $4)
         RETURNING `+friendshipColumns,
		uuid.NewString(), requesterID, addresseeID, models.FriendshipPending,
	).StructScan(&friendship)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Friendship{}, ErrFriendshipExists
		}
		return models.Friendship{}, err
	}
	return friendship, nil
}

// Get fetches one friendship row.
func (r *FriendshipRepo) Get(ctx context.Context, friendshipID string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id=$1`, friendshipID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	return friendship, err
}

// UpdateStatus moves a request to accepted or blocked.
func (r *FriendshipRepo) UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.QueryRowxContext(ctx,
		`UPDATE friendships SET status=$2, updated_at=NOW() WHERE id=$1
         RETURNING `+friendshipColumns, friendshipID, status,
	).StructScan(&friendship)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	return friendship, err
}

// Delete removes a friendship (unfriend or reject).
func (r *FriendshipRepo) Delete(ctx context.Context, friendshipID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id=$1`, friendshipID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

// ListFriends returns accepted friendships with the other side's display
// data joined in.
func (r *FriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	return r.listWithFriend(ctx,
		`SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
                p.user_id AS friend_user_id, p.name AS friend_name, p.avatar_url AS friend_avatar_url
         FROM friendships f
         JOIN profiles p ON p.user_id = CASE WHEN f.requester_id=$1 THEN f.addressee_id ELSE f.requester_id END
         WHERE (f.requester_id=$1 OR f.addressee_id=$1) AND f.status=$2`,
		userID, models.FriendshipAccepted)
}

// ListPending returns requests awaiting this user's answer.
func (r *FriendshipRepo) ListPending(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	return r.listWithFriend(ctx,
		`SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
                p.user_id AS friend_user_id, p.name AS friend_name, p.avatar_url AS friend_avatar_url
         FROM friendships f
         JOIN profiles p ON p.user_id = f.requester_id
         WHERE f.addressee_id=$1 AND f.status=$2`,
		userID, models.FriendshipPending)
}

// ListSent returns requests this user has issued.
func (r *FriendshipRepo) ListSent(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	return r.listWithFriend(ctx,
		`SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
                p.user_id AS friend_user_id, p.name AS friend_name, p.avatar_url AS friend_avatar_url
         FROM friendships f
         JOIN profiles p ON p.user_id = f.addressee_id
         WHERE f.requester_id=$1 AND f.status=$2`,
		userID, models.FriendshipPending)
}

// AreFriends reports whether an accepted friendship links the two users.
func (r *FriendshipRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships
            WHERE status=$3
              AND ((requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1)))`,
		userID, otherID, models.FriendshipAccepted)
	return exists, err
}

func (r *FriendshipRepo) listWithFriend(ctx context.Context, query string, args ...any) ([]models.FriendshipView, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.FriendshipView
	for rows.Next() {
		var row struct {
			models.Friendship
			FriendUserID    string `db:"friend_user_id"`
			FriendName      string `db:"friend_name"`
			FriendAvatarURL string `db:"friend_avatar_url"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		result = append(result, models.FriendshipView{
			Friendship: row.Friendship,
			Friend: models.Sender{
				UserID:    row.FriendUserID,
				Name:      row.FriendName,
				AvatarURL: row.FriendAvatarURL,
			},
		})
	}
	return result, rows.Err()
}
