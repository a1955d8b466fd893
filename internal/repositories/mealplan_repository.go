package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bodygoal/internal/models"
)

var ErrMealPlanNotFound = errors.New("meal plan not found")

// MealPlanRepository persists generated and hand-made plans.
type MealPlanRepository interface {
	Create(ctx context.Context, plan models.MealPlan) (models.MealPlan, error)
	Get(ctx context.Context, planID, userID string) (models.MealPlan, error)
	List(ctx context.Context, userID string) ([]models.MealPlan, error)
	Delete(ctx context.Context, planID, userID string) error
}

// MealPlanRepo is a sqlx-backed repository.
type MealPlanRepo struct {
	db *sqlx.DB
}

// NewMealPlanRepo constructs MealPlanRepo.
func NewMealPlanRepo(db *sqlx.DB) *MealPlanRepo {
	return &MealPlanRepo{db: db}
}

const mealPlanColumns = `id, user_id, name, type, calories_per_day, plan_data, created_at, updated_at`

// Create inserts a plan.
func (r *MealPlanRepo) Create(ctx context.Context, plan models.MealPlan) (models.MealPlan, error) {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	var stored models.MealPlan
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO meal_plans (id, user_id, name, type, calories_per_day, plan_data)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING `+mealPlanColumns,
		plan.ID, plan.UserID, plan.Name, plan.Type, plan.CaloriesPerDay, plan.PlanData,
	).StructScan(&stored)
	return stored, err
}

// Get fetches the user's own plan.
func (r *MealPlanRepo) Get(ctx context.Context, planID, userID string) (models.MealPlan, error) {
	var plan models.MealPlan
	err := r.db.GetContext(ctx, &plan,
		`SELECT `+mealPlanColumns+` FROM meal_plans WHERE id=$1 AND user_id=$2`, planID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MealPlan{}, ErrMealPlanNotFound
	}
	return plan, err
}

// List returns the user's plans, newest first.
func (r *MealPlanRepo) List(ctx context.Context, userID string) ([]models.MealPlan, error) {
	var plans []models.MealPlan
	err := r.db.SelectContext(ctx, &plans,
		`SELECT `+mealPlanColumns+` FROM meal_plans
         WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return plans, err
}

// Delete removes the user's own plan.
func (r *MealPlanRepo) Delete(ctx context.Context, planID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_plans WHERE id=$1 AND user_id=$2`, planID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMealPlanNotFound
	}
	return nil
}
