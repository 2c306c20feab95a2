package providerconfig

import (
	"time"

	"github.com/google/uuid"
)

// Role namespaces within the config table. Keys carry the role prefix, e.g.
// ocr_provider_1, ai_model_primary.
const (
	RoleOCR = "ocr"
	RoleAI  = "ai"

	ocrKeyPrefix = "ocr_provider_"
	aiKeyPrefix  = "ai_model_"
)

// Sentinel provider names. RegexOnly terminates the OCR chain with empty
// text; TemplateOnly short-circuits the AI chain to the template generator.
const (
	RegexOnly    = "regex_only"
	TemplateOnly = "template_only"
)

// Config maps to the provider_configs table. Value is the provider/model
// identifier passed to the gateway; Provider is a human label for admins.
type Config struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	Provider  string    `db:"provider" json:"provider"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	Priority  int       `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// KeyPrefixForRole returns the key namespace for a role, or "" for an
// unknown role.
func KeyPrefixForRole(role string) string {
	switch role {
	case RoleOCR:
		return ocrKeyPrefix
	case RoleAI:
		return aiKeyPrefix
	default:
		return ""
	}
}
