package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the protocol_entries table. One row per treatment week
// recording the dose applied.
type Entry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Week      int        `db:"week" json:"week"`
	Dose      string     `db:"dose" json:"dose"`
	AppliedAt *time.Time `db:"applied_at" json:"applied_at,omitempty"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
