package measurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/patient"
)

var validSources = map[string]bool{
	"manual":     true,
	"extraction": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRecord(ctx context.Context, rec *Record) error {
	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if rec.Source == "" {
		rec.Source = "manual"
	}
	if !validSources[rec.Source] {
		return fmt.Errorf("invalid source: %s", rec.Source)
	}
	if rec.MeasuredAt.IsZero() {
		rec.MeasuredAt = time.Now().UTC()
	}
	if rec.Week != nil && *rec.Week < 0 {
		return fmt.Errorf("week must not be negative")
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateRecord applies an admin edit. Records are otherwise immutable once
// written.
func (s *Service) UpdateRecord(ctx context.Context, rec *Record) error {
	if _, err := s.repo.GetByID(ctx, rec.ID); err != nil {
		return fmt.Errorf("measurement not found: %w", err)
	}
	return s.repo.Update(ctx, rec)
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// History returns the patient's measurements ordered by measurement date.
func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return s.repo.Latest(ctx, patientID)
}

func (s *Service) First(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return s.repo.First(ctx, patientID)
}

func (s *Service) PatientIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.PatientIDs(ctx)
}

// FirstAndLatest implements patient.MeasurementSource for goal progress.
func (s *Service) FirstAndLatest(ctx context.Context, patientID uuid.UUID) (*patient.BodyComp, *patient.BodyComp, error) {
	first, err := s.repo.First(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	latest, err := s.repo.Latest(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	return toBodyComp(first), toBodyComp(latest), nil
}

func toBodyComp(rec *Record) *patient.BodyComp {
	if rec == nil {
		return nil
	}
	return &patient.BodyComp{Weight: rec.Weight, BodyFatPercent: rec.BodyFatPercent}
}
