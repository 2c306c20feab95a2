package refrange

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reference-ranges", h.ListRanges)
	api.GET("/reference-ranges/evaluate", h.EvaluateMetric)
}

// ListRanges returns the curated reference table.
func (h *Handler) ListRanges(c echo.Context) error {
	return c.JSON(http.StatusOK, Defaults)
}

// EvaluateMetric classifies a single value, e.g.
// GET /reference-ranges/evaluate?metric=bmi&gender=female&value=24.8
func (h *Handler) EvaluateMetric(c echo.Context) error {
	metric := c.QueryParam("metric")
	gender := c.QueryParam("gender")
	if metric == "" || gender == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "metric and gender are required")
	}

	r, lowerIsBetter, ok := Lookup(metric, gender)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no reference range for metric/gender")
	}

	var value *float64
	if raw := c.QueryParam("value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid value")
		}
		value = &v
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"metric": metric,
		"gender": gender,
		"value":  value,
		"status": Evaluate(value, r, lowerIsBetter),
	})
}
