package models

import "time"

// Profile holds the user-facing data for an account, including the body
// metrics the calculator and planner read.
type Profile struct {
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	Age           *int      `db:"age" json:"age,omitempty"`
	Height        *float64  `db:"height" json:"height,omitempty"`
	Weight        *float64  `db:"weight" json:"weight,omitempty"`
	Gender        *string   `db:"gender" json:"gender,omitempty"`
	ActivityLevel *string   `db:"activity_level" json:"activity_level,omitempty"`
	Goal          *string   `db:"goal" json:"goal,omitempty"`
	TargetWeight  *float64  `db:"target_weight" json:"target_weight,omitempty"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Sender is the slice of a profile that chat display needs. It is what the
// per-session profile cache stores and what messages carry to clients.
type Sender struct {
	UserID    string `db:"user_id" json:"user_id"`
	Name      string `db:"name" json:"name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
}
