package extraction

import (
	"time"

	"github.com/google/uuid"
)

// Extracted is the sparse record produced by the regex pass. Nil means the
// field was not found in the text; zero is a real measured value. Derived
// tracks which fields were computed rather than directly matched.
type Extracted struct {
	Weight                *float64 `json:"weight,omitempty"`
	BMI                   *float64 `json:"bmi,omitempty"`
	BodyFatPercent        *float64 `json:"body_fat_percent,omitempty"`
	FatMass               *float64 `json:"fat_mass,omitempty"`
	LeanMass              *float64 `json:"lean_mass,omitempty"`
	MuscleMass            *float64 `json:"muscle_mass,omitempty"`
	MuscleRatePercent     *float64 `json:"muscle_rate_percent,omitempty"`
	SkeletalMusclePercent *float64 `json:"skeletal_muscle_percent,omitempty"`
	VisceralFat           *float64 `json:"visceral_fat,omitempty"`
	SubcutaneousFat       *float64 `json:"subcutaneous_fat_percent,omitempty"`
	BodyWaterPercent      *float64 `json:"body_water_percent,omitempty"`
	ProteinPercent        *float64 `json:"protein_percent,omitempty"`
	BoneMass              *float64 `json:"bone_mass,omitempty"`
	BMR                   *float64 `json:"bmr,omitempty"`
	MetabolicAge          *float64 `json:"metabolic_age,omitempty"`
	WaistHipRatio         *float64 `json:"waist_hip_ratio,omitempty"`

	Derived map[string]bool `json:"derived,omitempty"`
}

// HasData reports whether any field was extracted.
func (e *Extracted) HasData() bool {
	for _, f := range e.fields() {
		if *f.value != nil {
			return true
		}
	}
	return false
}

type fieldRef struct {
	name  string
	value **float64
}

// fields enumerates the extractable fields in a fixed order.
func (e *Extracted) fields() []fieldRef {
	return []fieldRef{
		{"weight", &e.Weight},
		{"bmi", &e.BMI},
		{"body_fat_percent", &e.BodyFatPercent},
		{"fat_mass", &e.FatMass},
		{"lean_mass", &e.LeanMass},
		{"muscle_mass", &e.MuscleMass},
		{"muscle_rate_percent", &e.MuscleRatePercent},
		{"skeletal_muscle_percent", &e.SkeletalMusclePercent},
		{"visceral_fat", &e.VisceralFat},
		{"subcutaneous_fat_percent", &e.SubcutaneousFat},
		{"body_water_percent", &e.BodyWaterPercent},
		{"protein_percent", &e.ProteinPercent},
		{"bone_mass", &e.BoneMass},
		{"bmr", &e.BMR},
		{"metabolic_age", &e.MetabolicAge},
		{"waist_hip_ratio", &e.WaistHipRatio},
	}
}

// Record maps to the extraction_records table: one immutable audit row per
// processed image.
type Record struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	RawText     string    `db:"raw_text" json:"raw_text"`
	Method      string    `db:"method" json:"method"`
	Status      string    `db:"status" json:"status"`
	Data        Extracted `db:"data" json:"data"`
	AIProcessed bool      `db:"ai_processed" json:"ai_processed"`
	Insights    string    `db:"insights" json:"insights"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Extraction statuses.
const (
	StatusCompleted = "completed"
	StatusEmpty     = "empty"
)

// UsageEntry maps to the api_usage_log table: one observational row per
// provider attempt, never read back by the pipeline.
type UsageEntry struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ProviderKey      string    `db:"provider_key" json:"provider_key"`
	Operation        string    `db:"operation" json:"operation"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	Success          bool      `db:"success" json:"success"`
	DurationMs       int64     `db:"duration_ms" json:"duration_ms"`
	PromptTokens     int       `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens" json:"completion_tokens"`
	EstimatedCost    float64   `db:"estimated_cost" json:"estimated_cost"`
	ErrorMessage     *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Operations recorded in the usage ledger.
const (
	OperationOCR      = "ocr"
	OperationInsights = "insights"
)
