package web

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAuth rejects requests until the manager is auth-ready and a
// principal exists. 401 signals the SPA to redirect to its login entry.
func (h *Handler) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.manager.IsAuthReady() {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "auth not ready")
		}
		if !h.manager.IsAuthenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		return next(c)
	}
}

// RequireMenu guards a region behind a permission node. Authenticated but
// not granted yields 403; the session itself is untouched.
func (h *Handler) RequireMenu(nodeID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !h.manager.HasPermission(nodeID) {
				return echo.NewHTTPError(http.StatusForbidden, "menu not granted: "+nodeID)
			}
			return next(c)
		}
	}
}
