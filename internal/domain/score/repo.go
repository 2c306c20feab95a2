package score

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ReplaceAll swaps the score table for a fresh batch in one shot.
	ReplaceAll(ctx context.Context, scores []*PatientScore) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientScore, error)
	// List returns scores ordered by rank ascending.
	List(ctx context.Context, limit, offset int) ([]*PatientScore, int, error)
}
