package patient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if activeOnly && !p.Active {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

type mockMeasurements struct {
	first, latest *BodyComp
}

func (m *mockMeasurements) FirstAndLatest(_ context.Context, _ uuid.UUID) (*BodyComp, *BodyComp, error) {
	return m.first, m.latest, nil
}

func f64(v float64) *float64 { return &v }

// -- Tests --

func TestCreatePatient(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Patient{Name: "Maria Silva", Gender: "female"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected generated ID")
	}
	if !p.Active {
		t.Error("new patients should be active")
	}
	if p.StartDate == nil {
		t.Error("expected default start date")
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		patient Patient
	}{
		{"missing name", Patient{Gender: "male"}},
		{"missing gender", Patient{Name: "x"}},
		{"bad gender", Patient{Name: "x", Gender: "unknown"}},
		{"bad height", Patient{Name: "x", Gender: "male", HeightCm: f64(10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.patient
			if err := svc.CreatePatient(ctx, &p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDeactivatePatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{Name: "Joao", Gender: "male"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	if err := svc.DeactivatePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("DeactivatePatient: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), p.ID)
	if got.Active {
		t.Error("expected patient inactive")
	}

	if err := svc.DeactivatePatient(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestGoalProgress(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.SetMeasurementSource(&mockMeasurements{
		first:  &BodyComp{Weight: f64(90), BodyFatPercent: f64(30)},
		latest: &BodyComp{Weight: f64(85), BodyFatPercent: f64(27)},
	})

	p := &Patient{Name: "Ana", Gender: "female", GoalWeight: f64(80), GoalFatPercent: f64(22)}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	gp, err := svc.GoalProgress(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GoalProgress: %v", err)
	}
	// 90 -> 85 of a 90 -> 80 goal is halfway.
	if gp.WeightProgress == nil || *gp.WeightProgress != 50 {
		t.Errorf("weight progress: got %v want 50", gp.WeightProgress)
	}
	// 30 -> 27 of a 30 -> 22 goal is 37.5%.
	if gp.FatProgress == nil || *gp.FatProgress != 37.5 {
		t.Errorf("fat progress: got %v want 37.5", gp.FatProgress)
	}
}

func TestGoalProgress_NoHistory(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.SetMeasurementSource(&mockMeasurements{})

	p := &Patient{Name: "Ana", Gender: "female", GoalWeight: f64(80)}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	gp, err := svc.GoalProgress(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GoalProgress: %v", err)
	}
	if gp.WeightProgress != nil {
		t.Error("expected no progress without history")
	}
	if gp.GoalWeight == nil || *gp.GoalWeight != 80 {
		t.Error("expected goal carried through")
	}
}

func TestPatientAge(t *testing.T) {
	birth := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	p := &Patient{BirthDate: &birth}

	if got := p.Age(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)); got != 35 {
		t.Errorf("day before birthday: got %d want 35", got)
	}
	if got := p.Age(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)); got != 36 {
		t.Errorf("on birthday: got %d want 36", got)
	}

	none := &Patient{}
	if got := none.Age(time.Now()); got != 0 {
		t.Errorf("unknown birth date: got %d want 0", got)
	}
}
