// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/authz"
	"github.com/campusbook/campusbook/internal/config"
	"github.com/campusbook/campusbook/internal/http/authn"
	"github.com/campusbook/campusbook/internal/http/views"
	"github.com/campusbook/campusbook/internal/metrics"
	"github.com/campusbook/campusbook/internal/session"
	"github.com/campusbook/campusbook/internal/store"
)

const (
	// ContextKeyRequestID stores the request id for logging and client error
	// references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg         config.Config
	Sessions    *session.Manager
	Resolver    *auth.Resolver
	Students    store.StudentStore
	Teachers    store.TeacherStore
	Courses     store.CourseStore
	Departments store.DepartmentStore
}

// Decide asks the authorization engine for a decision and records it. The
// decision must be obtained before any store mutation.
func (h *Handlers) Decide(c echo.Context, action authz.Action, res authz.Resource) authz.Decision {
	p, ok := authn.PrincipalFromContext(c)
	d := authz.Decide(p, ok, action, res)
	metrics.AuthzDecisionsTotal.WithLabelValues(string(action), string(res.Kind), string(d.Reason)).Inc()
	return d
}

// BaseData assembles the layout data every page shares.
func (h *Handlers) BaseData(c echo.Context, title string) views.BaseData {
	data := views.BaseData{
		Title:     title,
		CSRFToken: csrfToken(c),
		Flash:     popFlash(c),
	}
	if p, ok := authn.PrincipalFromContext(c); ok {
		data.SignedIn = true
		data.DisplayName = p.DisplayName
		data.IsTeacher = p.IsTeacher()
	}
	return data
}

// RenderPage renders a named view as the response. The page is rendered to a
// buffer first so a template failure can still produce a clean error response.
func (h *Handlers) RenderPage(c echo.Context, name string, data any) error {
	return h.renderBuffered(c, http.StatusOK, name, data)
}

// RenderForbidden renders the fixed access-denied page.
func (h *Handlers) RenderForbidden(c echo.Context) error {
	data := views.AccessDeniedData{BaseData: h.BaseData(c, "Access denied")}
	return h.renderBuffered(c, http.StatusForbidden, "access_denied", data)
}

func (h *Handlers) renderBuffered(c echo.Context, code int, name string, data any) error {
	var buf bytes.Buffer
	if err := views.Render(&buf, name, data); err != nil {
		return h.RenderError(c, err)
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// RenderError returns a plain text error response without leaking details.
func (h *Handlers) RenderError(c echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	slog.Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

func parseInt64(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseIDList reads a repeated form field of numeric ids.
func parseIDList(values []string) []int64 {
	var ids []int64
	for _, raw := range values {
		if id, ok := parseInt64(raw); ok && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
