package reporting

import (
	"regexp"
	"strings"
	"testing"
)

func TestPredefinedMeasures(t *testing.T) {
	expectedIDs := []string{
		"patient-count",
		"measurements-per-week",
		"extraction-outcomes",
		"provider-token-spend",
		"score-distribution",
	}

	if len(PredefinedMeasures) != len(expectedIDs) {
		t.Fatalf("expected %d predefined measures, got %d", len(expectedIDs), len(PredefinedMeasures))
	}
	for i, expectedID := range expectedIDs {
		if PredefinedMeasures[i].ID != expectedID {
			t.Errorf("expected measure[%d].ID = %s, got %s", i, expectedID, PredefinedMeasures[i].ID)
		}
	}
}

func TestPredefinedMeasures_HaveSQL(t *testing.T) {
	for _, m := range PredefinedMeasures {
		if m.SQL == "" {
			t.Errorf("measure %s has empty SQL", m.ID)
		}
		if m.Name == "" {
			t.Errorf("measure %s has empty name", m.ID)
		}
		if m.Description == "" {
			t.Errorf("measure %s has empty description", m.ID)
		}
		// Reports are read-only aggregates.
		if !strings.HasPrefix(strings.TrimSpace(m.SQL), "SELECT") {
			t.Errorf("measure %s SQL is not a SELECT", m.ID)
		}
	}
}

// schemaIdentifiers lists every table and column the migrations create that a
// measure may reference. A measure naming anything outside this set would
// fail at query plan time with a 500.
var schemaIdentifiers = map[string]bool{
	"patients": true, "measurements": true, "extraction_records": true,
	"api_usage_log": true, "patient_scores": true,

	"id": true, "active": true, "week": true, "created_at": true,
	"status": true, "method": true, "ai_processed": true,
	"provider_key": true, "operation": true,
	"prompt_tokens": true, "completion_tokens": true,
	"criticality": true,
}

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"order": true, "desc": true, "as": true, "count": true, "sum": true,
	"coalesce": true, "case": true, "when": true, "then": true, "else": true,
	"end": true, "now": true, "interval": true, "days": true,
}

func TestPredefinedMeasures_ReferenceOnlySchemaIdentifiers(t *testing.T) {
	word := regexp.MustCompile(`[a-z_]+`)
	alias := regexp.MustCompile(`\bas\s+([a-z_]+)`)

	for _, m := range PredefinedMeasures {
		sql := strings.ToLower(m.SQL)

		aliases := map[string]bool{}
		for _, am := range alias.FindAllStringSubmatch(sql, -1) {
			aliases[am[1]] = true
		}

		for _, w := range word.FindAllString(sql, -1) {
			if sqlKeywords[w] || aliases[w] || schemaIdentifiers[w] {
				continue
			}
			t.Errorf("measure %s references %q, which is neither a schema identifier nor a SQL keyword", m.ID, w)
		}
	}
}

func TestFindMeasure_Exists(t *testing.T) {
	m := FindMeasure("patient-count")
	if m == nil {
		t.Fatal("expected to find patient-count measure")
	}
	if m.Name != "Patient Count" {
		t.Errorf("expected 'Patient Count', got %s", m.Name)
	}
}

func TestFindMeasure_NotFound(t *testing.T) {
	if m := FindMeasure("nonexistent"); m != nil {
		t.Error("expected nil for nonexistent measure")
	}
}
