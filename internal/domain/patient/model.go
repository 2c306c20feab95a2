package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Gender         string     `db:"gender" json:"gender"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	HeightCm       *float64   `db:"height_cm" json:"height_cm,omitempty"`
	GoalWeight     *float64   `db:"goal_weight" json:"goal_weight,omitempty"`
	GoalFatPercent *float64   `db:"goal_fat_percent" json:"goal_fat_percent,omitempty"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	Active         bool       `db:"active" json:"active"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Age returns the patient's age in whole years, or 0 if birth date is unknown.
func (p *Patient) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// GoalProgress summarizes how far a patient has moved from their first
// measurement toward their configured targets.
type GoalProgress struct {
	GoalWeight     *float64 `json:"goal_weight,omitempty"`
	GoalFatPercent *float64 `json:"goal_fat_percent,omitempty"`
	StartWeight    *float64 `json:"start_weight,omitempty"`
	CurrentWeight  *float64 `json:"current_weight,omitempty"`
	WeightProgress *float64 `json:"weight_progress_percent,omitempty"`
	StartFat       *float64 `json:"start_fat_percent,omitempty"`
	CurrentFat     *float64 `json:"current_fat_percent,omitempty"`
	FatProgress    *float64 `json:"fat_progress_percent,omitempty"`
}
