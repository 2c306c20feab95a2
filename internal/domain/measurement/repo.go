package measurement

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient returns the patient's history ordered by measurement
	// date ascending.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	// First and Latest return nil without error when the patient has no
	// measurements yet.
	First(ctx context.Context, patientID uuid.UUID) (*Record, error)
	Latest(ctx context.Context, patientID uuid.UUID) (*Record, error)
	// PatientIDs returns the distinct patients that have at least one
	// measurement, for batch score recomputation.
	PatientIDs(ctx context.Context) ([]uuid.UUID, error)
}
