package protocol

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient returns all entries for a patient ordered by week.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
}
