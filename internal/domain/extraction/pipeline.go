package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/providerconfig"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/llm"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/metrics"
)

// rawTextLimit bounds the transcription stored on the audit row and echoed
// in the response.
const rawTextLimit = 4000

// Rough OpenRouter-tier token prices used for the ledger's estimated cost.
const (
	promptCostPerToken     = 0.0000025
	completionCostPerToken = 0.00001
)

const ocrPrompt = "Transcreva fielmente todo o texto visível nesta imagem de " +
	"relatório de bioimpedância. Responda apenas com o texto transcrito, " +
	"sem comentários."

// ProviderResolver resolves the ordered provider list for a role. Resolution
// happens per invocation: an in-flight request keeps the list it read, admin
// changes apply from the next request on.
type ProviderResolver interface {
	Resolve(ctx context.Context, role string) ([]string, error)
}

// Gateway is the chat-completion surface the pipeline calls. Vision-capable
// models double as OCR providers.
type Gateway interface {
	ChatCompletion(ctx context.Context, model string, messages []llm.Message) (*llm.Completion, error)
}

// Request is the pipeline input. ImageURL and PatientID are the only
// required fields; the handler rejects their absence before the pipeline
// starts.
type Request struct {
	PatientID uuid.UUID
	ImageURL  string
	SkipAI    bool
}

// Result is the pipeline output. Success is true whenever the request was
// well-formed, including the all-null-fields case.
type Result struct {
	Success          bool       `json:"success"`
	ExtractionID     uuid.UUID  `json:"extraction_id"`
	ExtractedData    *Extracted `json:"extracted_data"`
	RawText          string     `json:"raw_text"`
	Insights         string     `json:"insights"`
	Method           string     `json:"method"`
	AIProcessed      bool       `json:"ai_processed"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

// Pipeline drives the OCR chain, the regex pass, the AI chain and the audit
// writes for one report image.
type Pipeline struct {
	resolver ProviderResolver
	gateway  Gateway
	repo     Repository
	usage    UsageRepository
	logger   zerolog.Logger
}

func NewPipeline(resolver ProviderResolver, gateway Gateway, repo Repository, usage UsageRepository, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		gateway:  gateway,
		repo:     repo,
		usage:    usage,
		logger:   logger,
	}
}

// attemptFn performs one provider call and returns its content.
type attemptFn func(ctx context.Context, provider string) (*llm.Completion, error)

// tryInOrder drives one sequential fallback chain. Providers are attempted
// in order until one returns non-empty content. Reaching the sentinel name
// stops the chain without a call. Every real attempt, success or failure, is
// timed and appended to the usage ledger. lastProvider is the final provider
// touched, sentinel included.
func (p *Pipeline) tryInOrder(ctx context.Context, providers []string, sentinel, operation string, patientID uuid.UUID, attempt attemptFn) (content, lastProvider string, sentinelHit bool) {
	for _, provider := range providers {
		if provider == sentinel {
			return "", provider, true
		}
		lastProvider = provider

		start := time.Now()
		completion, err := attempt(ctx, provider)
		duration := time.Since(start)

		got := ""
		if err == nil && completion != nil {
			got = strings.TrimSpace(completion.Content)
		}
		success := err == nil && got != ""

		p.recordUsage(ctx, provider, operation, patientID, success, duration, completion, err)

		outcome := "failure"
		if success {
			outcome = "success"
		}
		metrics.ProviderAttempts.WithLabelValues(provider, operation, outcome).Inc()

		if success {
			return got, provider, false
		}
		p.logger.Warn().
			Str("provider", provider).
			Str("operation", operation).
			Err(err).
			Msg("provider attempt failed, trying next")
	}
	return "", lastProvider, false
}

// recordUsage appends one ledger row. Ledger writes are observational: a
// failure is logged and swallowed.
func (p *Pipeline) recordUsage(ctx context.Context, provider, operation string, patientID uuid.UUID, success bool, duration time.Duration, completion *llm.Completion, attemptErr error) {
	entry := &UsageEntry{
		ProviderKey: provider,
		Operation:   operation,
		PatientID:   patientID,
		Success:     success,
		DurationMs:  duration.Milliseconds(),
	}
	if completion != nil {
		entry.PromptTokens = completion.PromptTokens
		entry.CompletionTokens = completion.CompletionTokens
		entry.EstimatedCost = float64(completion.PromptTokens)*promptCostPerToken +
			float64(completion.CompletionTokens)*completionCostPerToken
	}
	if attemptErr != nil {
		msg := attemptErr.Error()
		entry.ErrorMessage = &msg
	}

	if err := p.usage.Append(ctx, entry); err != nil {
		p.logger.Warn().Err(err).Str("provider", provider).Msg("usage ledger write failed")
	}
}

// Process runs the full pipeline for one image. It hard-fails only on
// malformed input; provider exhaustion and empty extractions are successful
// responses.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if req.ImageURL == "" {
		return nil, fmt.Errorf("image_url is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	start := time.Now()

	// OCR chain: first non-empty transcription wins; exhaustion leaves the
	// text empty and the pipeline keeps going.
	rawText, method := p.runOCRChain(ctx, req)

	data := Parse(rawText)

	insights, aiProcessed := p.runInsightsChain(ctx, req, data)

	status := StatusEmpty
	if data.HasData() {
		status = StatusCompleted
	}
	if method == "" {
		method = providerconfig.RegexOnly
	}

	rec := &Record{
		PatientID:   req.PatientID,
		ImageURL:    req.ImageURL,
		RawText:     truncateText(rawText, rawTextLimit),
		Method:      method,
		Status:      status,
		Data:        *data,
		AIProcessed: aiProcessed,
		Insights:    insights,
	}
	// Audit write failure does not fail the response: the deliverable has
	// already been computed.
	if err := p.repo.CreateRecord(ctx, rec); err != nil {
		p.logger.Error().Err(err).Msg("extraction audit write failed")
	}

	metrics.ExtractionsProcessed.WithLabelValues(status).Inc()

	return &Result{
		Success:          true,
		ExtractionID:     rec.ID,
		ExtractedData:    data,
		RawText:          rec.RawText,
		Insights:         insights,
		Method:           method,
		AIProcessed:      aiProcessed,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Pipeline) runOCRChain(ctx context.Context, req Request) (rawText, lastProvider string) {
	providers, err := p.resolver.Resolve(ctx, providerconfig.RoleOCR)
	if err != nil {
		p.logger.Error().Err(err).Msg("ocr provider resolution failed")
		return "", ""
	}

	text, last, sentinelHit := p.tryInOrder(ctx, providers, providerconfig.RegexOnly, OperationOCR, req.PatientID,
		func(ctx context.Context, provider string) (*llm.Completion, error) {
			return p.gateway.ChatCompletion(ctx, provider, []llm.Message{
				llm.VisionMessage(ocrPrompt, req.ImageURL),
			})
		})
	if sentinelHit {
		return "", providerconfig.RegexOnly
	}
	return text, last
}

// runInsightsChain produces the narrative. It is entered only when the regex
// pass found data and the caller did not skip AI; in every other data-bearing
// path the deterministic template generator is the fallback. No data means no
// narrative at all.
func (p *Pipeline) runInsightsChain(ctx context.Context, req Request, data *Extracted) (insights string, aiProcessed bool) {
	if !data.HasData() {
		return "", false
	}
	if req.SkipAI {
		return TemplateInsights(data), false
	}

	models, err := p.resolver.Resolve(ctx, providerconfig.RoleAI)
	if err != nil {
		p.logger.Error().Err(err).Msg("ai model resolution failed")
		return TemplateInsights(data), false
	}

	content, _, sentinelHit := p.tryInOrder(ctx, models, providerconfig.TemplateOnly, OperationInsights, req.PatientID,
		func(ctx context.Context, model string) (*llm.Completion, error) {
			return p.gateway.ChatCompletion(ctx, model, []llm.Message{
				llm.TextMessage("system", "Você é um assistente de saúde que comenta medições de bioimpedância em português, em tom encorajador e objetivo."),
				llm.TextMessage("user", insightsPrompt(data)),
			})
		})
	if sentinelHit || content == "" {
		return TemplateInsights(data), false
	}
	return content, true
}

func insightsPrompt(data *Extracted) string {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	return "Gere um parágrafo curto de insights sobre esta medição de " +
		"bioimpedância (valores ausentes foram omitidos): " + string(payload)
}

// truncateText caps s at n bytes without splitting a multi-byte rune, so the
// stored text stays valid UTF-8 and Postgres accepts the audit row.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
