package providerconfig

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
)

type Handler struct {
	repo     Repository
	resolver *Resolver
}

func NewHandler(repo Repository, resolver *Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// RegisterRoutes mounts the admin config CRUD. Provider configuration steers
// which external services get called, so it is master-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/provider-configs", auth.RequireRole("master"))
	g.GET("", h.ListConfigs)
	g.GET("/resolve/:role", h.ResolveRole)
	g.POST("", h.CreateConfig)
	g.PUT("/:id", h.UpdateConfig)
	g.DELETE("/:id", h.DeleteConfig)
}

func (h *Handler) ListConfigs(c echo.Context) error {
	configs, err := h.repo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if configs == nil {
		configs = []*Config{}
	}
	return c.JSON(http.StatusOK, configs)
}

// ResolveRole previews the ordered fallback list the pipeline would use.
func (h *Handler) ResolveRole(c echo.Context) error {
	role := c.Param("role")
	providers, err := h.resolver.Resolve(c.Request().Context(), role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if providers == nil {
		providers = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"role":      role,
		"providers": providers,
	})
}

func (h *Handler) CreateConfig(c echo.Context) error {
	var cfg Config
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateConfig(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.repo.Create(c.Request().Context(), &cfg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, cfg)
}

func (h *Handler) UpdateConfig(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var cfg Config
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg.ID = id
	if err := validateConfig(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.repo.Update(c.Request().Context(), &cfg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) DeleteConfig(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func validateConfig(cfg *Config) error {
	if cfg.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	if !strings.HasPrefix(cfg.Key, ocrKeyPrefix) && !strings.HasPrefix(cfg.Key, aiKeyPrefix) {
		return echo.NewHTTPError(http.StatusBadRequest, "key must carry the ocr_provider_ or ai_model_ prefix")
	}
	if cfg.Value == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "value is required")
	}
	return nil
}
