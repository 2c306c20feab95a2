package score

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/measurement"
)

func f64(v float64) *float64 { return &v }

func rec(weight, fat, muscle *float64) *measurement.Record {
	return &measurement.Record{ID: uuid.New(), Weight: weight, BodyFatPercent: fat, MuscleRatePercent: muscle}
}

func TestCompute_Improvement(t *testing.T) {
	pid := uuid.New()
	first := rec(f64(100), f64(30), f64(30))
	latest := rec(f64(90), f64(27), f64(33))

	ps := Compute(pid, first, latest)

	// weight -10%, fat -10%, muscle +10%.
	if ps.WeightEvolution == nil || *ps.WeightEvolution != -10 {
		t.Errorf("weight evolution: got %v want -10", ps.WeightEvolution)
	}
	if ps.FatEvolution == nil || *ps.FatEvolution != -10 {
		t.Errorf("fat evolution: got %v want -10", ps.FatEvolution)
	}
	if ps.MuscleEvolution == nil || *ps.MuscleEvolution != 10 {
		t.Errorf("muscle evolution: got %v want 10", ps.MuscleEvolution)
	}
	// 0.4*10 + 0.3*10 + 0.3*10 = 10.
	if ps.Score != 10 {
		t.Errorf("score: got %v want 10", ps.Score)
	}
	if ps.Criticality != CriticalityHealthy {
		t.Errorf("criticality: got %s want healthy", ps.Criticality)
	}
}

func TestCompute_Regression(t *testing.T) {
	ps := Compute(uuid.New(), rec(f64(80), f64(20), f64(35)), rec(f64(92), f64(26), f64(31)))

	if ps.Score >= 0 {
		t.Errorf("score for regressed patient should be negative, got %v", ps.Score)
	}
	if ps.Criticality != CriticalityCritical {
		t.Errorf("criticality: got %s want critical", ps.Criticality)
	}
}

func TestCompute_MissingMetrics(t *testing.T) {
	// Only weight tracked: fat and muscle contribute nothing.
	ps := Compute(uuid.New(), rec(f64(100), nil, nil), rec(f64(95), nil, nil))

	if ps.FatEvolution != nil || ps.MuscleEvolution != nil {
		t.Error("missing metrics must yield nil evolutions")
	}
	// 0.4 * 5 = 2.
	if ps.Score != 2 {
		t.Errorf("score: got %v want 2", ps.Score)
	}
	if ps.Criticality != CriticalityNormal {
		t.Errorf("criticality: got %s want normal", ps.Criticality)
	}
}

func TestCompute_SingleMeasurement(t *testing.T) {
	only := rec(f64(100), f64(30), nil)
	ps := Compute(uuid.New(), only, only)

	if ps.Score != 0 || ps.WeightEvolution != nil {
		t.Errorf("single measurement must score zero with nil evolutions, got %+v", ps)
	}
	if ps.Criticality != CriticalityNormal {
		t.Errorf("criticality: got %s", ps.Criticality)
	}
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{12, CriticalityHealthy},
		{5, CriticalityHealthy},
		{4.9, CriticalityNormal},
		{0, CriticalityNormal},
		{-0.1, CriticalityAttention},
		{-5, CriticalityAttention},
		{-5.1, CriticalityCritical},
	}
	for _, tt := range tests {
		if got := classify(tt.score); got != tt.want {
			t.Errorf("classify(%v): got %s want %s", tt.score, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	scores := []*PatientScore{
		{PatientID: uuid.New(), Score: 2},
		{PatientID: uuid.New(), Score: 8},
		{PatientID: uuid.New(), Score: -3},
	}
	Rank(scores)

	if scores[0].Score != 8 || scores[0].Rank != 1 {
		t.Errorf("top: %+v", scores[0])
	}
	if scores[2].Score != -3 || scores[2].Rank != 3 {
		t.Errorf("bottom: %+v", scores[2])
	}
}

// -- Recompute service --

type mockHistory struct {
	byPatient map[uuid.UUID][2]*measurement.Record
}

func (m *mockHistory) PatientIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range m.byPatient {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockHistory) First(_ context.Context, id uuid.UUID) (*measurement.Record, error) {
	return m.byPatient[id][0], nil
}

func (m *mockHistory) Latest(_ context.Context, id uuid.UUID) (*measurement.Record, error) {
	return m.byPatient[id][1], nil
}

type mockScoreRepo struct {
	stored []*PatientScore
}

func (m *mockScoreRepo) ReplaceAll(_ context.Context, scores []*PatientScore) error {
	m.stored = scores
	return nil
}

func (m *mockScoreRepo) GetByPatient(_ context.Context, id uuid.UUID) (*PatientScore, error) {
	for _, ps := range m.stored {
		if ps.PatientID == id {
			return ps, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockScoreRepo) List(_ context.Context, _, _ int) ([]*PatientScore, int, error) {
	return m.stored, len(m.stored), nil
}

func TestRecomputeAll(t *testing.T) {
	improving := uuid.New()
	regressing := uuid.New()
	history := &mockHistory{byPatient: map[uuid.UUID][2]*measurement.Record{
		improving:  {rec(f64(100), f64(30), f64(30)), rec(f64(90), f64(27), f64(33))},
		regressing: {rec(f64(80), f64(20), f64(35)), rec(f64(92), f64(26), f64(31))},
	}}
	repo := &mockScoreRepo{}
	svc := NewService(repo, history, zerolog.Nop())

	count, err := svc.RecomputeAll(context.Background())
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if count != 2 {
		t.Fatalf("count: got %d want 2", count)
	}
	if len(repo.stored) != 2 {
		t.Fatalf("stored: got %d", len(repo.stored))
	}
	if repo.stored[0].PatientID != improving || repo.stored[0].Rank != 1 {
		t.Errorf("rank 1 should be the improving patient: %+v", repo.stored[0])
	}
	if repo.stored[1].PatientID != regressing || repo.stored[1].Rank != 2 {
		t.Errorf("rank 2 should be the regressing patient: %+v", repo.stored[1])
	}
	if repo.stored[0].ComputedAt.IsZero() || time.Since(repo.stored[0].ComputedAt) > time.Minute {
		t.Error("computed_at not set")
	}
}
