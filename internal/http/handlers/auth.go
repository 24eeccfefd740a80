package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/http/authn"
	"github.com/campusbook/campusbook/internal/http/views"
	"github.com/campusbook/campusbook/internal/metrics"
)

const genericLoginError = "Invalid username or password"

func (h *Handlers) HandleHome(c echo.Context) error {
	return h.RenderPage(c, "home", views.HomeData{BaseData: h.BaseData(c, "Home")})
}

func (h *Handlers) HandleLoginGet(c echo.Context) error {
	if _, ok := authn.PrincipalFromContext(c); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	data := views.LoginData{
		BaseData:    h.BaseData(c, "Log in"),
		Next:        authn.SanitizeNext(c.QueryParam("next")),
		DemoEnabled: h.Cfg.DemoLoginEnabled,
	}

	// The three flags are mutually exclusive; first match wins.
	switch {
	case c.QueryParam("error") != "":
		data.ErrorMessage = genericLoginError
	case c.QueryParam("expired") != "":
		data.ErrorMessage = "Your session has expired. Please log in again"
	case c.QueryParam("logout") != "":
		data.SuccessMessage = "You have been logged out successfully"
	}

	return h.RenderPage(c, "login", data)
}

func (h *Handlers) HandleLoginPost(c echo.Context) error {
	username := auth.NormalizeUsername(c.FormValue("username"))
	password := c.FormValue("password")
	next := authn.SanitizeNext(c.FormValue("next"))

	principal, err := h.Resolver.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// The specific reason stays in the logs only.
			slog.Info("login rejected", "username", username, "reason", err)
			metrics.LoginAttemptsTotal.WithLabelValues("password", "invalid").Inc()
			return c.Redirect(http.StatusSeeOther, "/auth/login?error=true")
		}
		metrics.LoginAttemptsTotal.WithLabelValues("password", "error").Inc()
		return h.RenderError(c, err)
	}

	h.establishSession(c, principal)
	metrics.LoginAttemptsTotal.WithLabelValues("password", "success").Inc()

	if next != "" {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleDemoLoginPost signs in without a credential check. A testing
// affordance only; the route is registered only when DEMO_LOGIN_ENABLED is
// set.
func (h *Handlers) HandleDemoLoginPost(c echo.Context) error {
	displayName := strings.TrimSpace(c.FormValue("display_name"))
	role, err := auth.ParseRole(c.FormValue("role"))
	if err != nil || displayName == "" {
		return c.Redirect(http.StatusSeeOther, "/auth/login?error=true")
	}

	principal := auth.Principal{
		DisplayName: displayName,
		Role:        role,
	}
	h.establishSession(c, principal)
	metrics.LoginAttemptsTotal.WithLabelValues("demo", "success").Inc()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) HandleLogoutPost(c echo.Context) error {
	if cookie, err := c.Cookie(authn.SessionCookieName); err == nil && cookie != nil {
		h.Sessions.Invalidate(cookie.Value)
		metrics.SessionsLive.Set(float64(h.Sessions.Count()))
	}
	authn.ClearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/auth/login?logout=true")
}

func (h *Handlers) HandleRegisterGet(c echo.Context) error {
	if _, ok := authn.PrincipalFromContext(c); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.RenderPage(c, "register", views.RegisterData{BaseData: h.BaseData(c, "Register")})
}

func (h *Handlers) HandleRegisterPost(c echo.Context) error {
	form := views.RegisterForm{
		Username:    auth.NormalizeUsername(c.FormValue("username")),
		DisplayName: strings.TrimSpace(c.FormValue("display_name")),
		Email:       strings.TrimSpace(c.FormValue("email")),
		Role:        strings.ToUpper(strings.TrimSpace(c.FormValue("role"))),
	}

	renderWithError := func(msg string) error {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return h.RenderPage(c, "register", views.RegisterData{
			BaseData:     h.BaseData(c, "Register"),
			Form:         form,
			ErrorMessage: msg,
		})
	}

	role, err := auth.ParseRole(form.Role)
	if err != nil {
		return renderWithError("Role must be student or teacher")
	}
	if form.Username == "" {
		return renderWithError("Username is required")
	}
	if form.DisplayName == "" {
		return renderWithError("Name is required")
	}
	password := c.FormValue("password")
	if strings.TrimSpace(password) == "" {
		return renderWithError("Password is required")
	}

	_, err = h.Resolver.Register(c.Request().Context(), auth.RegisterInput{
		Username:        form.Username,
		Password:        password,
		ConfirmPassword: c.FormValue("confirm_password"),
		DisplayName:     form.DisplayName,
		Email:           form.Email,
		Role:            role,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordsDoNotMatch):
			return renderWithError("Passwords do not match")
		case errors.Is(err, auth.ErrUsernameTaken):
			return renderWithError("Username already exists")
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			return h.RenderError(c, err)
		}
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	setFlash(c, views.Flash{Category: "success", Message: "Registration successful! Please log in with your credentials."})
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}

func (h *Handlers) HandleAccessDenied(c echo.Context) error {
	return h.RenderForbidden(c)
}

// establishSession creates the session (superseding any older one for the
// same identity) and delivers the token cookie.
func (h *Handlers) establishSession(c echo.Context, principal auth.Principal) {
	token := h.Sessions.Create(principal)
	authn.SetSessionCookie(c, token, h.Cfg.AuthCookieSecure)
	metrics.SessionsLive.Set(float64(h.Sessions.Count()))
}
