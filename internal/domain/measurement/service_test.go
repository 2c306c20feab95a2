package measurement

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	records map[uuid.UUID]*Record
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRepo) Create(_ context.Context, rec *Record) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return rec, nil
}

func (m *mockRepo) Update(_ context.Context, rec *Record) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockRepo) byPatient(patientID uuid.UUID) []*Record {
	var result []*Record
	for _, rec := range m.records {
		if rec.PatientID == patientID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MeasuredAt.Before(result[j].MeasuredAt)
	})
	return result
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	result := m.byPatient(patientID)
	return result, len(result), nil
}

func (m *mockRepo) First(_ context.Context, patientID uuid.UUID) (*Record, error) {
	result := m.byPatient(patientID)
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

func (m *mockRepo) Latest(_ context.Context, patientID uuid.UUID) (*Record, error) {
	result := m.byPatient(patientID)
	if len(result) == 0 {
		return nil, nil
	}
	return result[len(result)-1], nil
}

func (m *mockRepo) PatientIDs(_ context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, rec := range m.records {
		if !seen[rec.PatientID] {
			seen[rec.PatientID] = true
			ids = append(ids, rec.PatientID)
		}
	}
	return ids, nil
}

func f64(v float64) *float64 { return &v }

// -- Tests --

func TestCreateRecord(t *testing.T) {
	svc := NewService(newMockRepo())

	rec := &Record{PatientID: uuid.New(), Weight: f64(75.5)}
	if err := svc.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.Source != "manual" {
		t.Errorf("expected default source manual, got %q", rec.Source)
	}
	if rec.MeasuredAt.IsZero() {
		t.Error("expected default measured_at")
	}
}

func TestCreateRecord_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateRecord(ctx, &Record{}); err == nil {
		t.Error("expected error for missing patient_id")
	}
	week := -1
	if err := svc.CreateRecord(ctx, &Record{PatientID: uuid.New(), Week: &week}); err == nil {
		t.Error("expected error for negative week")
	}
	if err := svc.CreateRecord(ctx, &Record{PatientID: uuid.New(), Source: "import"}); err == nil {
		t.Error("expected error for invalid source")
	}
}

func TestHistoryOrdering(t *testing.T) {
	svc := NewService(newMockRepo())
	pid := uuid.New()
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	// Insert out of order.
	for _, offset := range []int{2, 0, 1} {
		rec := &Record{
			PatientID:  pid,
			MeasuredAt: base.AddDate(0, 0, 7*offset),
			Weight:     f64(80 - float64(offset)),
		}
		if err := svc.CreateRecord(context.Background(), rec); err != nil {
			t.Fatalf("CreateRecord: %v", err)
		}
	}

	recs, total, err := svc.History(context.Background(), pid, 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 3 {
		t.Fatalf("total: got %d want 3", total)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].MeasuredAt.Before(recs[i-1].MeasuredAt) {
			t.Error("history not ordered by measurement date")
		}
	}

	first, _ := svc.First(context.Background(), pid)
	latest, _ := svc.Latest(context.Background(), pid)
	if first == nil || *first.Weight != 80 {
		t.Errorf("first: got %+v", first)
	}
	if latest == nil || *latest.Weight != 78 {
		t.Errorf("latest: got %+v", latest)
	}
}

func TestFirstAndLatest_NoHistory(t *testing.T) {
	svc := NewService(newMockRepo())

	first, latest, err := svc.FirstAndLatest(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FirstAndLatest: %v", err)
	}
	if first != nil || latest != nil {
		t.Error("expected nil snapshots for empty history")
	}
}

func TestUpdateRecord_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.UpdateRecord(context.Background(), &Record{ID: uuid.New()})
	if err == nil {
		t.Error("expected error for unknown record")
	}
}

func TestHasData(t *testing.T) {
	empty := &Record{}
	if empty.HasData() {
		t.Error("empty record should report no data")
	}
	rec := &Record{VisceralFat: f64(9)}
	if !rec.HasData() {
		t.Error("record with a field should report data")
	}
}
