package score

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/patients/:patientId/score", h.GetPatientScore)
	api.POST("/scores/recompute", h.TriggerRecompute, auth.RequireRole("master"))
}

// GetLeaderboard returns the ranked score list. Scores are read as computed;
// clients never recompute them.
func (h *Handler) GetLeaderboard(c echo.Context) error {
	pg := pagination.FromContext(c)
	scores, total, err := h.svc.Leaderboard(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(scores, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatientScore(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if !auth.CanAccessPatient(c.Request().Context(), patientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	ps, err := h.svc.GetScore(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no score computed for patient")
	}
	return c.JSON(http.StatusOK, ps)
}

// TriggerRecompute rebuilds the leaderboard on demand.
func (h *Handler) TriggerRecompute(c echo.Context) error {
	count, err := h.svc.RecomputeAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"recomputed": count})
}
