package score

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/measurement"
)

// HistorySource provides the measurement history needed for recomputation.
// Implemented by the measurement service.
type HistorySource interface {
	PatientIDs(ctx context.Context) ([]uuid.UUID, error)
	First(ctx context.Context, patientID uuid.UUID) (*measurement.Record, error)
	Latest(ctx context.Context, patientID uuid.UUID) (*measurement.Record, error)
}

type Service struct {
	repo    Repository
	history HistorySource
	logger  zerolog.Logger
}

func NewService(repo Repository, history HistorySource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, history: history, logger: logger}
}

// RecomputeAll rebuilds the whole leaderboard from measurement history.
// Called by the nightly job and by the admin trigger endpoint.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.history.PatientIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing patients with measurements: %w", err)
	}

	scores := make([]*PatientScore, 0, len(ids))
	for _, id := range ids {
		first, err := s.history.First(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("first measurement for %s: %w", id, err)
		}
		latest, err := s.history.Latest(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("latest measurement for %s: %w", id, err)
		}
		scores = append(scores, Compute(id, first, latest))
	}

	Rank(scores)

	if err := s.repo.ReplaceAll(ctx, scores); err != nil {
		return 0, fmt.Errorf("persisting scores: %w", err)
	}

	s.logger.Info().Int("patients", len(scores)).Msg("leaderboard recomputed")
	return len(scores), nil
}

func (s *Service) GetScore(ctx context.Context, patientID uuid.UUID) (*PatientScore, error) {
	return s.repo.GetByPatient(ctx, patientID)
}

func (s *Service) Leaderboard(ctx context.Context, limit, offset int) ([]*PatientScore, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// StartScheduler runs the nightly recomputation at the given local time
// (HH:MM). The returned scheduler is already started; stop it on shutdown.
func (s *Service) StartScheduler(at string) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(1).Day().At(at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.RecomputeAll(ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled score recompute failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling score recompute: %w", err)
	}
	scheduler.StartAsync()
	return scheduler, nil
}
