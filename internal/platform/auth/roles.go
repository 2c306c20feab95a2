package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that rejects callers lacking all of the
// given roles. The "master" role implies every other role.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == "master" {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// IsMaster reports whether the caller holds the master role.
func IsMaster(ctx context.Context) bool {
	for _, r := range RolesFromContext(ctx) {
		if r == "master" {
			return true
		}
	}
	return false
}

// CanAccessPatient reports whether the caller may read the given patient's
// data: masters see everyone, patients only themselves.
func CanAccessPatient(ctx context.Context, patientID string) bool {
	if IsMaster(ctx) {
		return true
	}
	return patientID != "" && PatientIDFromContext(ctx) == patientID
}
