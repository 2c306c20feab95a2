package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Valid gender values. The curated reference ranges are gender-specific, so
// the tracked set is fixed.
var validGenders = map[string]bool{
	"male":   true,
	"female": true,
}

// BodyComp is the minimal body-composition snapshot needed for goal progress.
type BodyComp struct {
	Weight         *float64
	BodyFatPercent *float64
}

// MeasurementSource provides the first and latest measurements for a patient.
// Implemented by the measurement service; nil values mean no history yet.
type MeasurementSource interface {
	FirstAndLatest(ctx context.Context, patientID uuid.UUID) (first, latest *BodyComp, err error)
}

type Service struct {
	repo         Repository
	measurements MeasurementSource
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetMeasurementSource attaches the measurement history source used for goal
// progress. Optional; without it GoalProgress reports targets only.
func (s *Service) SetMeasurementSource(ms MeasurementSource) {
	s.measurements = ms
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Gender == "" {
		return fmt.Errorf("gender is required")
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.HeightCm != nil && (*p.HeightCm < 50 || *p.HeightCm > 260) {
		return fmt.Errorf("height_cm out of range: %v", *p.HeightCm)
	}
	if p.StartDate == nil {
		now := time.Now().UTC()
		p.StartDate = &now
	}
	p.Active = true
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Gender != "" && !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	return s.repo.Update(ctx, p)
}

// DeactivatePatient marks a patient inactive. Inactive patients keep their
// history but drop out of the leaderboard and active listings.
func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	p.Active = false
	return s.repo.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

// GoalProgress reports how far the patient has moved from their first
// measurement toward the configured targets. Progress is the share of the
// start-to-goal distance covered, in percent; it is omitted when the goal or
// history is missing, or when start equals goal.
func (s *Service) GoalProgress(ctx context.Context, id uuid.UUID) (*GoalProgress, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}

	gp := &GoalProgress{
		GoalWeight:     p.GoalWeight,
		GoalFatPercent: p.GoalFatPercent,
	}
	if s.measurements == nil {
		return gp, nil
	}

	first, latest, err := s.measurements.FirstAndLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if first == nil || latest == nil {
		return gp, nil
	}

	gp.StartWeight = first.Weight
	gp.CurrentWeight = latest.Weight
	gp.StartFat = first.BodyFatPercent
	gp.CurrentFat = latest.BodyFatPercent

	gp.WeightProgress = progressToward(first.Weight, latest.Weight, p.GoalWeight)
	gp.FatProgress = progressToward(first.BodyFatPercent, latest.BodyFatPercent, p.GoalFatPercent)

	return gp, nil
}

func progressToward(start, current, goal *float64) *float64 {
	if start == nil || current == nil || goal == nil {
		return nil
	}
	span := *start - *goal
	if span == 0 {
		return nil
	}
	pct := (*start - *current) / span * 100
	return &pct
}
