package extraction

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestTemplateInsights_Empty(t *testing.T) {
	if got := TemplateInsights(&Extracted{}); got != "" {
		t.Errorf("empty extraction must yield empty insight, got %q", got)
	}
	if got := TemplateInsights(nil); got != "" {
		t.Errorf("nil extraction must yield empty insight, got %q", got)
	}
}

func TestTemplateInsights_FixedPriorityOrder(t *testing.T) {
	data := &Extracted{
		MuscleRatePercent: f64(35),
		VisceralFat:       f64(12),
		BMI:               f64(27.1),
		BodyFatPercent:    f64(29),
	}
	got := TemplateInsights(data)

	// Sentence order follows metric priority, not input order.
	idxBMI := strings.Index(got, "IMC")
	idxFat := strings.Index(got, "Percentual de gordura")
	idxVisc := strings.Index(got, "Gordura visceral")
	idxMuscle := strings.Index(got, "Taxa muscular")
	if idxBMI == -1 || idxFat == -1 || idxVisc == -1 || idxMuscle == -1 {
		t.Fatalf("missing sentences in %q", got)
	}
	if !(idxBMI < idxFat && idxFat < idxVisc && idxVisc < idxMuscle) {
		t.Errorf("sentences out of priority order: %q", got)
	}
}

func TestTemplateInsights_OneSentencePerPresentMetric(t *testing.T) {
	got := TemplateInsights(&Extracted{VisceralFat: f64(8)})
	if !strings.Contains(got, "Gordura visceral") {
		t.Errorf("expected visceral sentence, got %q", got)
	}
	if strings.Contains(got, "IMC") || strings.Contains(got, "Taxa muscular") {
		t.Errorf("absent metrics must not produce sentences: %q", got)
	}
}

func TestTemplateInsights_GenericFallback(t *testing.T) {
	// Data present, but none of the four thresholded metrics.
	got := TemplateInsights(&Extracted{Weight: f64(80.2)})
	if got != "Medição registrada com sucesso." {
		t.Errorf("expected generic sentence, got %q", got)
	}
}

func TestTemplateInsights_Deterministic(t *testing.T) {
	data := &Extracted{BMI: f64(24.0), BodyFatPercent: f64(19.5)}
	first := TemplateInsights(data)
	for i := 0; i < 5; i++ {
		if TemplateInsights(data) != first {
			t.Fatal("template output changed between runs")
		}
	}
}
