// Package authn binds the session manager to the HTTP layer: the session
// cookie, principal resolution, and the route guards.
package authn

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/session"
)

const (
	ContextKeyPrincipal = "auth_principal"

	// SessionCookieName carries the opaque session token.
	SessionCookieName = "campusbook_session"
)

// PrincipalFromContext returns the principal resolved for this request.
func PrincipalFromContext(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(auth.Principal)
	return p, ok
}

// SetSessionCookie delivers the session token to the client.
func SetSessionCookie(c echo.Context, token string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the client-held session identifier.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadPrincipal resolves the request's session cookie against the session
// table.
func LoadPrincipal(c echo.Context, sessions *session.Manager) (auth.Principal, session.Status) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == nil || cookie.Value == "" {
		return auth.Principal{}, session.StatusNone
	}
	return sessions.Resolve(cookie.Value)
}

// ResolvePrincipal stores the current principal, if any, in the request
// context. It never blocks the request; route guards decide access.
func ResolvePrincipal(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, status := LoadPrincipal(c, sessions); status == session.StatusActive {
				c.Set(ContextKeyPrincipal, p)
			}
			return next(c)
		}
	}
}

// RequireAuth guards non-public routes. A superseded session redirects with
// the expired flag; a missing one redirects to plain login.
func RequireAuth(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, status := LoadPrincipal(c, sessions)
			switch status {
			case session.StatusActive:
				c.Set(ContextKeyPrincipal, p)
				return next(c)
			case session.StatusExpired:
				ClearSessionCookie(c)
				return c.Redirect(http.StatusSeeOther, "/auth/login?expired=true")
			default:
				location := "/auth/login"
				if c.Request().Method == http.MethodGet {
					if next := SanitizeNext(c.Request().URL.RequestURI()); next != "" {
						location = "/auth/login?next=" + url.QueryEscape(next)
					}
				}
				return c.Redirect(http.StatusSeeOther, location)
			}
		}
	}
}

// SanitizeNext keeps post-login redirect targets on-site.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return ""
	}
	if u.Path == "/auth/login" || strings.HasPrefix(u.Path, "/auth/login/") {
		return ""
	}
	if strings.Contains(next, "\\") {
		return ""
	}
	return next
}
