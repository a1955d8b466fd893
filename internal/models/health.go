package models

import (
	"encoding/json"
	"time"
)

// WeightRecord is one tracker data point.
type WeightRecord struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Weight    float64   `db:"weight" json:"weight"`
	Date      time.Time `db:"date" json:"date"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MealPlan stores a generated or hand-made plan. PlanData is the opaque plan
// body (the LLM output); the service does not interpret it.
type MealPlan struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	Name           string          `db:"name" json:"name"`
	Type           string          `db:"type" json:"type"`
	CaloriesPerDay int             `db:"calories_per_day" json:"calories_per_day"`
	PlanData       json.RawMessage `db:"plan_data" json:"plan_data"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
