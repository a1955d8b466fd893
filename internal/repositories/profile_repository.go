package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bodygoal/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles user-facing profile data and sender lookups.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, profile models.Profile) (models.Profile, error)
	SetAvatarURL(ctx context.Context, userID, avatarURL string) error
	GetSender(ctx context.Context, userID string) (models.Sender, error)
	GetSenders(ctx context.Context, userIDs []string) ([]models.Sender, error)
	Search(ctx context.Context, query string, limit int) ([]models.Sender, error)
	ListRecent(ctx context.Context, limit int) ([]models.Sender, error)
}

// ProfileRepo is a sqlx-backed repository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `user_id, name, age, height, weight, gender, activity_level, goal, target_weight, avatar_url, created_at, updated_at`

// Get fetches a full profile.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// Update overwrites the mutable profile fields and returns the stored row.
func (r *ProfileRepo) Update(ctx context.Context, profile models.Profile) (models.Profile, error) {
	var updated models.Profile
	err := r.db.QueryRowxContext(ctx,
		`UPDATE profiles SET name=$2, age=$3, height=$4, weight=$5, gender=$6,
            activity_level=$7, goal=$8, target_weight=$9, updated_at=NOW()
         WHERE user_id=$1
         RETURNING `+profileColumns,
		profile.UserID, profile.Name, profile.Age, profile.Height, profile.Weight,
		profile.Gender, profile.ActivityLevel, profile.Goal, profile.TargetWeight,
	).StructScan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return updated, err
}

// SetAvatarURL updates just the avatar reference.
func (r *ProfileRepo) SetAvatarURL(ctx context.Context, userID, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET avatar_url=$2, updated_at=NOW() WHERE user_id=$1`, userID, avatarURL)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetSender returns the display slice of one profile.
func (r *ProfileRepo) GetSender(ctx context.Context, userID string) (models.Sender, error) {
	var sender models.Sender
	err := r.db.GetContext(ctx, &sender,
		`SELECT user_id, name, avatar_url FROM profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sender{}, ErrProfileNotFound
	}
	return sender, err
}

// GetSenders bulk-fetches display slices.
func (r *ProfileRepo) GetSenders(ctx context.Context, userIDs []string) ([]models.Sender, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var senders []models.Sender
	err := r.db.SelectContext(ctx, &senders,
		`SELECT user_id, name, avatar_url FROM profiles WHERE user_id = ANY($1)`, pq.Array(userIDs))
	return senders, err
}

// Search finds named profiles matching a query.
func (r *ProfileRepo) Search(ctx context.Context, query string, limit int) ([]models.Sender, error) {
	var senders []models.Sender
	err := r.db.SelectContext(ctx, &senders,
		`SELECT user_id, name, avatar_url FROM profiles
         WHERE name ILIKE '%' || $1 || '%' AND name <> ''
         ORDER BY created_at DESC LIMIT $2`, query, limit)
	return senders, err
}

// ListRecent returns the newest named profiles.
func (r *ProfileRepo) ListRecent(ctx context.Context, limit int) ([]models.Sender, error) {
	var senders []models.Sender
	err := r.db.SelectContext(ctx, &senders,
		`SELECT user_id, name, avatar_url FROM profiles
         WHERE name <> '' ORDER BY created_at DESC LIMIT $1`, limit)
	return senders, err
}
