// Package web exposes the session core to the SPA: login/logout/renewal,
// principal and session state, the labeled navigation tree, the derived
// route table, and the admin audit log. UI code observes state through these
// endpoints; raw errors from the core never reach it.
package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/role"
	"github.com/cdss/cdss-web/internal/core/route"
	"github.com/cdss/cdss-web/internal/core/session"
	"github.com/cdss/cdss-web/internal/platform/audit"
	"github.com/cdss/cdss-web/pkg/pagination"
)

// Handler wires the session manager and route resolver to echo.
type Handler struct {
	manager  *session.Manager
	resolver *route.Resolver
	audit    *audit.Service
}

// NewHandler returns a Handler over the core components.
func NewHandler(manager *session.Manager, resolver *route.Resolver, auditSvc *audit.Service) *Handler {
	return &Handler{manager: manager, resolver: resolver, audit: auditSvc}
}

// RegisterRoutes registers all auth endpoints on the given group. The login
// middleware (rate limiting) applies to the login route only.
func (h *Handler) RegisterRoutes(g *echo.Group, loginMW ...echo.MiddlewareFunc) {
	g.POST("/auth/login", h.Login, loginMW...)
	g.POST("/auth/logout", h.Logout)
	g.POST("/auth/renew", h.Renew, h.RequireAuth)
	g.GET("/auth/me", h.Me)
	g.GET("/auth/session", h.SessionState)
	g.GET("/auth/menus", h.Menus, h.RequireAuth)
	g.GET("/auth/routes", h.Routes, h.RequireAuth)
	g.GET("/auth/home", h.Home, h.RequireAuth)
	g.GET("/audit", h.AuditLog, h.RequireAuth, h.RequireMenu("ADMIN_AUDIT_LOG"))
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// Login exchanges the credential and establishes the session.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id and password are required")
	}

	if err := h.manager.Login(c.Request().Context(), req.ID, req.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredential) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "login service unavailable")
	}

	return c.JSON(http.StatusOK, h.meResponse())
}

// Logout tears the session down. Idempotent: logging out an already
// logged-out session succeeds.
func (h *Handler) Logout(c echo.Context) error {
	h.manager.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Renew extends the idle session from a user-facing action.
func (h *Handler) Renew(c echo.Context) error {
	h.manager.RenewSession()
	return c.JSON(http.StatusOK, h.manager.SessionState())
}

type meResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *Handler) meResponse() *meResponse {
	p := h.manager.Principal()
	if p == nil {
		return nil
	}
	return &meResponse{ID: p.ID, Name: p.Name, Role: p.Role.String()}
}

// Me returns the current principal.
func (h *Handler) Me(c echo.Context) error {
	me := h.meResponse()
	if me == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, me)
}

// SessionState returns the clock and channel state for the countdown UI.
// Available before auth so the SPA can block on auth_ready.
func (h *Handler) SessionState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.SessionState())
}

type menuEntry struct {
	ID       string      `json:"id"`
	Path     string      `json:"path,omitempty"`
	Icon     string      `json:"icon,omitempty"`
	Label    string      `json:"label"`
	Children []menuEntry `json:"children,omitempty"`
}

// Menus returns the side-menu tree visible to the current principal:
// granted leaves plus the groups made visible by them, labeled for the
// principal's role. Breadcrumb-only leaves belong to detail trails, not the
// side menu, so they are excluded here.
func (h *Handler) Menus(c echo.Context) error {
	p := h.manager.Principal()
	store := h.manager.Store()

	var visible func(nodes []*menu.Node) []menuEntry
	visible = func(nodes []*menu.Node) []menuEntry {
		var out []menuEntry
		for _, n := range nodes {
			if !h.nodeVisible(n, p.Role, store) {
				continue
			}
			out = append(out, menuEntry{
				ID:       n.ID,
				Path:     n.Path,
				Icon:     n.Icon,
				Label:    menu.Label(n, p.Role),
				Children: visible(n.Children),
			})
		}
		return out
	}

	tree := store.Tree()
	if tree == nil {
		return c.JSON(http.StatusOK, []menuEntry{})
	}
	entries := visible(tree.Roots)
	if entries == nil {
		entries = []menuEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) nodeVisible(n *menu.Node, r role.Role, store *menu.Store) bool {
	if n.BreadcrumbOnly {
		return false
	}
	if r == role.SystemManager {
		return true
	}
	return store.IsGranted(n.ID)
}

// Routes returns the derived route table for the current principal.
func (h *Handler) Routes(c echo.Context) error {
	p := h.manager.Principal()
	return c.JSON(http.StatusOK, h.resolver.AccessibleList(p.Role))
}

type homeResponse struct {
	Home     string `json:"home,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Home returns the default landing route. When the tree yields no accessible
// path the response carries no home: the SPA must hold on a waiting state
// rather than navigate, though the role's historical landing route is
// offered as a display hint.
func (h *Handler) Home(c echo.Context) error {
	p := h.manager.Principal()
	home, ok := h.resolver.HomePath(p.Role)
	if !ok {
		return c.JSON(http.StatusConflict, homeResponse{Fallback: p.Role.FallbackHome()})
	}
	return c.JSON(http.StatusOK, homeResponse{Home: home})
}

// AuditLog lists recorded session events, newest first.
func (h *Handler) AuditLog(c echo.Context) error {
	p := pagination.FromContext(c)

	events, total, err := h.audit.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit events")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, p.Limit, p.Offset))
}
