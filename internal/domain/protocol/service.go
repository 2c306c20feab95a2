package protocol

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateEntry(ctx context.Context, e *Entry) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.Week < 0 {
		return fmt.Errorf("week must not be negative")
	}
	if e.Dose == "" {
		return fmt.Errorf("dose is required")
	}

	// One entry per patient per week.
	existing, err := s.repo.ListByPatient(ctx, e.PatientID)
	if err != nil {
		return err
	}
	for _, entry := range existing {
		if entry.Week == e.Week {
			return fmt.Errorf("week %d already has a protocol entry", e.Week)
		}
	}

	return s.repo.Create(ctx, e)
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateEntry(ctx context.Context, e *Entry) error {
	if e.Dose == "" {
		return fmt.Errorf("dose is required")
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
