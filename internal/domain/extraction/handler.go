package extraction

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/pkg/pagination"
)

// MeasurementSink receives a measurement snapshot for each extraction that
// produced data. Implemented by an adapter over the measurement service.
type MeasurementSink interface {
	CreateFromExtraction(ctx context.Context, patientID, extractionID uuid.UUID, data *Extracted) error
}

type processRequest struct {
	ImageURL  string `json:"image_url"`
	PatientID string `json:"patient_id"`
	SkipAI    bool   `json:"skip_ai"`
}

type Handler struct {
	pipeline *Pipeline
	repo     Repository
	usage    UsageRepository
	sink     MeasurementSink
	logger   zerolog.Logger
}

func NewHandler(pipeline *Pipeline, repo Repository, usage UsageRepository, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: pipeline, repo: repo, usage: usage, logger: logger}
}

// SetMeasurementSink attaches the measurement writer. Optional: without it
// extractions still produce audit rows and responses.
func (h *Handler) SetMeasurementSink(sink MeasurementSink) {
	h.sink = sink
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/extractions/process", h.ProcessImage)
	api.GET("/extractions/:id", h.GetExtraction)
	api.GET("/patients/:patientId/extractions", h.ListByPatient)
	api.GET("/usage", h.ListUsage, auth.RequireRole("master"))
}

// ProcessImage is the pipeline entry point. Missing image_url or patient_id
// is the only hard failure here; auth middleware already rejected
// unauthenticated callers with 401.
func (h *Handler) ProcessImage(c echo.Context) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ImageURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "image_url is required")
	}
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	if !auth.CanAccessPatient(c.Request().Context(), patientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	result, err := h.pipeline.Process(c.Request().Context(), Request{
		PatientID: patientID,
		ImageURL:  req.ImageURL,
		SkipAI:    req.SkipAI,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.sink != nil && result.ExtractedData.HasData() {
		if err := h.sink.CreateFromExtraction(c.Request().Context(), patientID, result.ExtractionID, result.ExtractedData); err != nil {
			h.logger.Error().Err(err).Msg("measurement write from extraction failed")
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetExtraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.repo.GetRecord(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "extraction not found")
	}
	if !auth.CanAccessPatient(c.Request().Context(), rec.PatientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if !auth.CanAccessPatient(c.Request().Context(), patientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	pg := pagination.FromContext(c)
	recs, total, err := h.repo.ListRecordsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListUsage(c echo.Context) error {
	pg := pagination.FromContext(c)
	entries, total, err := h.usage.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
