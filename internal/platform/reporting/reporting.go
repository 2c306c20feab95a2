// Package reporting exposes predefined operational reports over the tracking
// database: patient totals, measurement cadence, extraction outcomes and
// provider token spend. Each report is a fixed SQL query evaluated on demand;
// there is no ad-hoc query surface.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
)

// MeasureDefinition defines a report with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reports.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "patient-count",
		Name:        "Patient Count",
		Description: "Total and active patients being tracked",
		SQL:         `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0) AS active_count FROM patients`,
		Parameters:  []string{},
	},
	{
		ID:          "measurements-per-week",
		Name:        "Measurements per Week",
		Description: "Number of bioimpedance measurements recorded, grouped by treatment week",
		SQL:         `SELECT week, COUNT(*) AS total FROM measurements GROUP BY week ORDER BY week`,
		Parameters:  []string{},
	},
	{
		ID:          "extraction-outcomes",
		Name:        "Extraction Outcomes",
		Description: "Report extractions grouped by pipeline outcome over the last 30 days",
		SQL: `SELECT status, method, ai_processed, COUNT(*) AS total
FROM extraction_records
WHERE created_at > now() - interval '30 days'
GROUP BY status, method, ai_processed
ORDER BY total DESC`,
		Parameters: []string{},
	},
	{
		ID:          "provider-token-spend",
		Name:        "Provider Token Spend",
		Description: "Tokens consumed per provider over the last 30 days",
		SQL: `SELECT provider_key, operation, COUNT(*) AS calls,
COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
COALESCE(SUM(completion_tokens), 0) AS completion_tokens
FROM api_usage_log
WHERE created_at > now() - interval '30 days'
GROUP BY provider_key, operation
ORDER BY prompt_tokens + completion_tokens DESC`,
		Parameters: []string{},
	},
	{
		ID:          "score-distribution",
		Name:        "Score Distribution",
		Description: "Patients per criticality band in the latest score run",
		SQL:         `SELECT criticality, COUNT(*) AS total FROM patient_scores GROUP BY criticality ORDER BY total DESC`,
		Parameters:  []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new reporting handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the reporting API routes. Reports expose aggregate
// data across all patients, so they are restricted to masters.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("master"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	report := MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	}

	return c.JSON(http.StatusOK, report)
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, nil
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
