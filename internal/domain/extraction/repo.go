package extraction

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateRecord writes the immutable audit row for one processed image.
	CreateRecord(ctx context.Context, rec *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
}

type UsageRepository interface {
	// Append writes one ledger row per provider attempt. The pipeline never
	// reads the ledger back.
	Append(ctx context.Context, entry *UsageEntry) error
	List(ctx context.Context, limit, offset int) ([]*UsageEntry, int, error)
}
