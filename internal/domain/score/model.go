package score

import (
	"time"

	"github.com/google/uuid"
)

// Criticality bands, ordered from best to worst.
const (
	CriticalityHealthy   = "healthy"
	CriticalityNormal    = "normal"
	CriticalityAttention = "attention"
	CriticalityCritical  = "critical"
)

// PatientScore maps to the patient_scores table. Clients consume it as an
// opaque read: the combination weights live server-side only.
type PatientScore struct {
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	Score           float64   `db:"score" json:"score"`
	WeightEvolution *float64  `db:"weight_evolution" json:"weight_evolution,omitempty"`
	FatEvolution    *float64  `db:"fat_evolution" json:"fat_evolution,omitempty"`
	MuscleEvolution *float64  `db:"muscle_evolution" json:"muscle_evolution,omitempty"`
	Criticality     string    `db:"criticality" json:"criticality"`
	Rank            int       `db:"rank" json:"rank"`
	ComputedAt      time.Time `db:"computed_at" json:"computed_at"`
}
