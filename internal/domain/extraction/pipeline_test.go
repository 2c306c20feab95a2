package extraction

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/providerconfig"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/llm"
)

// -- Mocks --

type mockResolver struct {
	ocr []string
	ai  []string
}

func (m *mockResolver) Resolve(_ context.Context, role string) ([]string, error) {
	switch role {
	case providerconfig.RoleOCR:
		return m.ocr, nil
	case providerconfig.RoleAI:
		return m.ai, nil
	}
	return nil, fmt.Errorf("unknown role %s", role)
}

// mockGateway scripts one response per model and counts calls.
type mockGateway struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (m *mockGateway) ChatCompletion(_ context.Context, model string, _ []llm.Message) (*llm.Completion, error) {
	m.calls = append(m.calls, model)
	if err, ok := m.errs[model]; ok {
		return nil, err
	}
	return &llm.Completion{Content: m.responses[model], PromptTokens: 100, CompletionTokens: 50}, nil
}

type mockRecordRepo struct {
	records []*Record
	fail    bool
}

func (m *mockRecordRepo) CreateRecord(_ context.Context, rec *Record) error {
	if m.fail {
		return fmt.Errorf("db down")
	}
	rec.ID = uuid.New()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecordRepo) GetRecord(_ context.Context, id uuid.UUID) (*Record, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRecordRepo) ListRecordsByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Record, int, error) {
	var result []*Record
	for _, rec := range m.records {
		if rec.PatientID == patientID {
			result = append(result, rec)
		}
	}
	return result, len(result), nil
}

type mockUsageRepo struct {
	entries []*UsageEntry
}

func (m *mockUsageRepo) Append(_ context.Context, e *UsageEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockUsageRepo) List(_ context.Context, _, _ int) ([]*UsageEntry, int, error) {
	return m.entries, len(m.entries), nil
}

func newTestPipeline(resolver *mockResolver, gateway *mockGateway) (*Pipeline, *mockRecordRepo, *mockUsageRepo) {
	repo := &mockRecordRepo{}
	usage := &mockUsageRepo{}
	p := NewPipeline(resolver, gateway, repo, usage, zerolog.Nop())
	return p, repo, usage
}

// -- Tests --

func TestProcess_MalformedInput(t *testing.T) {
	p, _, _ := newTestPipeline(&mockResolver{}, &mockGateway{})

	if _, err := p.Process(context.Background(), Request{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing image URL")
	}
	if _, err := p.Process(context.Background(), Request{ImageURL: "http://x/1.jpg"}); err == nil {
		t.Error("expected error for missing patient ID")
	}
}

func TestProcess_OCRSuccessAndTemplateFallback(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a"}}
	gateway := &mockGateway{responses: map[string]string{
		"vision-a": "Peso: 75,5 kg\nIMC: 24,8\nGordura corporal: 18,2 %",
	}}
	p, repo, usage := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	checkField(t, "weight", result.ExtractedData.Weight, 75.5)
	checkField(t, "fat_mass", result.ExtractedData.FatMass, 13.74)
	checkField(t, "lean_mass", result.ExtractedData.LeanMass, 61.76)
	if result.Method != "vision-a" {
		t.Errorf("method: got %s", result.Method)
	}
	// No AI models configured: template fallback, not AI-processed.
	if result.AIProcessed {
		t.Error("expected template fallback without configured models")
	}
	if result.Insights == "" {
		t.Error("expected template insight for extracted data")
	}

	if len(repo.records) != 1 || repo.records[0].Status != StatusCompleted {
		t.Errorf("expected one completed audit row, got %+v", repo.records)
	}
	if len(usage.entries) != 1 || usage.entries[0].Operation != OperationOCR || !usage.entries[0].Success {
		t.Errorf("expected one successful ocr ledger row, got %+v", usage.entries)
	}
}

func TestProcess_EmptyText_SkipsAIChain(t *testing.T) {
	// Scenario: OCR succeeds but transcribes nothing useful.
	resolver := &mockResolver{ocr: []string{"vision-a"}, ai: []string{"llm-a"}}
	gateway := &mockGateway{responses: map[string]string{"vision-a": "texto ilegivel"}}
	p, repo, _ := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Success {
		t.Error("all-null extraction is still a success")
	}
	if result.ExtractedData.HasData() {
		t.Error("expected all-null record")
	}
	if result.Insights != "" {
		t.Errorf("no data means no insight, got %q", result.Insights)
	}
	// The AI model must never be called.
	for _, call := range gateway.calls {
		if call == "llm-a" {
			t.Error("AI chain entered without extracted data")
		}
	}
	if repo.records[0].Status != StatusEmpty {
		t.Errorf("status: got %s want %s", repo.records[0].Status, StatusEmpty)
	}
}

func TestProcess_AllOCRProvidersFail(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a", "vision-b", "vision-c"}}
	gateway := &mockGateway{errs: map[string]error{
		"vision-a": fmt.Errorf("timeout"),
		"vision-b": fmt.Errorf("502"),
		"vision-c": fmt.Errorf("connection refused"),
	}}
	p, repo, usage := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Success {
		t.Error("provider exhaustion must not fail the request")
	}
	if result.RawText != "" {
		t.Errorf("raw text: got %q want empty", result.RawText)
	}
	if result.Method != "vision-c" {
		t.Errorf("method should reflect the last attempted provider, got %s", result.Method)
	}
	// Exactly N attempts for N providers.
	if len(gateway.calls) != 3 {
		t.Errorf("attempts: got %d want 3", len(gateway.calls))
	}
	if len(usage.entries) != 3 {
		t.Fatalf("ledger rows: got %d want 3", len(usage.entries))
	}
	for _, e := range usage.entries {
		if e.Success {
			t.Error("failed attempt logged as success")
		}
		if e.ErrorMessage == nil {
			t.Error("failed attempt missing error message")
		}
	}
	if repo.records[0].Status != StatusEmpty {
		t.Errorf("status: got %s", repo.records[0].Status)
	}
}

func TestProcess_RegexOnlySentinel(t *testing.T) {
	resolver := &mockResolver{ocr: []string{providerconfig.RegexOnly, "vision-a"}}
	gateway := &mockGateway{responses: map[string]string{"vision-a": "Peso: 75,5"}}
	p, _, usage := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(gateway.calls) != 0 {
		t.Errorf("sentinel must stop the chain before any call, got %v", gateway.calls)
	}
	if len(usage.entries) != 0 {
		t.Error("sentinel is not an attempt, no ledger row expected")
	}
	if result.Method != providerconfig.RegexOnly {
		t.Errorf("method: got %s", result.Method)
	}
	if result.ExtractedData.HasData() {
		t.Error("no text means no data")
	}
}

func TestProcess_TemplateOnlySentinel(t *testing.T) {
	resolver := &mockResolver{
		ocr: []string{"vision-a"},
		ai:  []string{providerconfig.TemplateOnly, "llm-a"},
	}
	gateway := &mockGateway{responses: map[string]string{
		"vision-a": "IMC: 31,2\nGordura visceral: 16",
		"llm-a":    "narrativa gerada",
	}}
	p, _, _ := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// Only the OCR call happened; the AI chain short-circuited to template.
	if len(gateway.calls) != 1 {
		t.Errorf("calls: got %v want only the OCR call", gateway.calls)
	}
	if result.AIProcessed {
		t.Error("template output must not be flagged as AI-processed")
	}
	want := TemplateInsights(result.ExtractedData)
	if result.Insights != want {
		t.Errorf("insights: got %q want template output %q", result.Insights, want)
	}
}

func TestProcess_AIChainFallsThroughToTemplate(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a"}, ai: []string{"llm-a", "llm-b"}}
	gateway := &mockGateway{
		responses: map[string]string{"vision-a": "IMC: 24,0"},
		errs: map[string]error{
			"llm-a": fmt.Errorf("rate limited"),
			"llm-b": fmt.Errorf("rate limited"),
		},
	}
	p, _, usage := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.AIProcessed {
		t.Error("exhausted AI chain must fall back to template")
	}
	if result.Insights == "" {
		t.Error("template fallback must still produce a narrative")
	}
	// 1 OCR + 2 AI ledger rows.
	if len(usage.entries) != 3 {
		t.Errorf("ledger rows: got %d want 3", len(usage.entries))
	}
}

func TestProcess_AISuccess(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a"}, ai: []string{"llm-a"}}
	gateway := &mockGateway{responses: map[string]string{
		"vision-a": "IMC: 24,0",
		"llm-a":    "Parabéns, seu IMC está saudável.",
	}}
	p, repo, _ := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.AIProcessed {
		t.Error("expected AI-processed narrative")
	}
	if result.Insights != "Parabéns, seu IMC está saudável." {
		t.Errorf("insights: got %q", result.Insights)
	}
	if !repo.records[0].AIProcessed {
		t.Error("audit row must carry the AI-processed flag")
	}
}

func TestProcess_SkipAI(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a"}, ai: []string{"llm-a"}}
	gateway := &mockGateway{responses: map[string]string{
		"vision-a": "IMC: 24,0",
		"llm-a":    "narrativa",
	}}
	p, _, _ := newTestPipeline(resolver, gateway)

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg", SkipAI: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.AIProcessed {
		t.Error("skip_ai must bypass the AI chain")
	}
	for _, call := range gateway.calls {
		if call == "llm-a" {
			t.Error("AI model called despite skip_ai")
		}
	}
	if result.Insights == "" {
		t.Error("skip_ai with data still gets template insights")
	}
}

func TestProcess_AuditWriteFailureIsNonFatal(t *testing.T) {
	resolver := &mockResolver{ocr: []string{"vision-a"}}
	gateway := &mockGateway{responses: map[string]string{"vision-a": "Peso: 80,0"}}
	repo := &mockRecordRepo{fail: true}
	usage := &mockUsageRepo{}
	p := NewPipeline(resolver, gateway, repo, usage, zerolog.Nop())

	result, err := p.Process(context.Background(), Request{PatientID: uuid.New(), ImageURL: "http://x/1.jpg"})
	if err != nil {
		t.Fatalf("audit write failure must not fail the request: %v", err)
	}
	if !result.Success {
		t.Error("expected success despite audit write failure")
	}
	checkField(t, "weight", result.ExtractedData.Weight, 80.0)
}

func TestTruncateText_KeepsRuneBoundary(t *testing.T) {
	// Each "ç" is two bytes; a byte-level cut at 5 would split the third one.
	s := strings.Repeat("ç", 10)

	got := truncateText(s, 5)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4 (trimmed back to the rune boundary)", len(got))
	}

	if got := truncateText("medição", 100); got != "medição" {
		t.Errorf("short text must pass through unchanged, got %q", got)
	}
	if got := truncateText(strings.Repeat("a", 10), 5); got != "aaaaa" {
		t.Errorf("ascii cut = %q, want %q", got, "aaaaa")
	}
}
