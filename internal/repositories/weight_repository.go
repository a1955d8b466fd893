package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bodygoal/internal/models"
)

var ErrWeightNotFound = errors.New("weight record not found")

// WeightRepository persists tracker data points.
type WeightRepository interface {
	Create(ctx context.Context, rec models.WeightRecord) (models.WeightRecord, error)
	List(ctx context.Context, userID string, since time.Time, limit int) ([]models.WeightRecord, error)
	Latest(ctx context.Context, userID string) (models.WeightRecord, error)
	Delete(ctx context.Context, recordID, userID string) error
}

// WeightRepo is a sqlx-backed repository.
type WeightRepo struct {
	db *sqlx.DB
}

// NewWeightRepo constructs WeightRepo.
func NewWeightRepo(db *sqlx.DB) *WeightRepo {
	return &WeightRepo{db: db}
}

const weightColumns = `id, user_id, weight, date, notes, created_at`

// Create inserts a weight record.
func (r *WeightRepo) Create(ctx context.Context, rec models.WeightRecord) (models.WeightRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	var stored models.WeightRecord
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO weight_records (id, user_id, weight, date, notes)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+weightColumns,
		rec.ID, rec.UserID, rec.Weight, rec.Date, rec.Notes,
	).StructScan(&stored)
	return stored, err
}

// List returns records since the cutoff, newest first. A zero cutoff means
// the full history.
func (r *WeightRepo) List(ctx context.Context, userID string, since time.Time, limit int) ([]models.WeightRecord, error) {
	var records []models.WeightRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT `+weightColumns+` FROM weight_records
         WHERE user_id=$1 AND date >= $2
         ORDER BY date DESC
         LIMIT $3`,
		userID, since, limit)
	return records, err
}

// Latest returns the most recent record for the user.
func (r *WeightRepo) Latest(ctx context.Context, userID string) (models.WeightRecord, error) {
	var rec models.WeightRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT `+weightColumns+` FROM weight_records
         WHERE user_id=$1 ORDER BY date DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeightRecord{}, ErrWeightNotFound
	}
	return rec, err
}

// Delete removes the user's own record.
func (r *WeightRepo) Delete(ctx context.Context, recordID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM weight_records WHERE id=$1 AND user_id=$2`, recordID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrWeightNotFound
	}
	return nil
}
