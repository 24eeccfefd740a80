package httpapp

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/campusbook/campusbook/internal/config"
	"github.com/campusbook/campusbook/internal/http/authn"
	"github.com/campusbook/campusbook/internal/http/handlers"
	"github.com/campusbook/campusbook/internal/session"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server around the shared handler set.
func NewEchoServer(cfg config.Config, h *handlers.Handlers) (*EchoServer, error) {
	h.Cfg = cfg
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HideBanner = true
	es.registerRoutes(h.Sessions)
	return es, nil
}

func (es *EchoServer) registerRoutes(sessions *session.Manager) {
	es.e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	csrf := middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})

	// Public routes: home, login, registration, static assets.
	public := es.e.Group("", csrf, authn.ResolvePrincipal(sessions))
	public.GET("/", es.h.HandleHome)
	public.GET("/auth/login", es.h.HandleLoginGet)
	public.POST("/auth/login", es.h.HandleLoginPost)
	public.GET("/auth/register", es.h.HandleRegisterGet)
	public.POST("/auth/register", es.h.HandleRegisterPost)
	public.POST("/auth/logout", es.h.HandleLogoutPost)
	public.GET("/access-denied", es.h.HandleAccessDenied)
	if es.h.Cfg.DemoLoginEnabled {
		public.POST("/auth/demo-login", es.h.HandleDemoLoginPost)
	}

	authed := es.e.Group("", csrf, authn.RequireAuth(sessions))
	authed.GET("/students", es.h.HandleStudents)
	authed.GET("/students/new", es.h.HandleStudentNew)
	authed.POST("/students", es.h.HandleStudentCreate)
	authed.GET("/students/:id", es.h.HandleStudentView)
	authed.GET("/students/:id/edit", es.h.HandleStudentEdit)
	authed.POST("/students/:id", es.h.HandleStudentUpdate)
	authed.POST("/students/:id/delete", es.h.HandleStudentDelete)

	authed.GET("/teachers", es.h.HandleTeachers)
	authed.GET("/teachers/new", es.h.HandleTeacherNew)
	authed.POST("/teachers", es.h.HandleTeacherCreate)
	authed.GET("/teachers/:id/edit", es.h.HandleTeacherEdit)
	authed.POST("/teachers/:id", es.h.HandleTeacherUpdate)
	authed.POST("/teachers/:id/delete", es.h.HandleTeacherDelete)

	authed.GET("/courses", es.h.HandleCourses)
	authed.GET("/courses/new", es.h.HandleCourseNew)
	authed.POST("/courses", es.h.HandleCourseCreate)
	authed.GET("/courses/:id/edit", es.h.HandleCourseEdit)
	authed.POST("/courses/:id", es.h.HandleCourseUpdate)
	authed.POST("/courses/:id/delete", es.h.HandleCourseDelete)

	authed.GET("/departments", es.h.HandleDepartments)
	authed.GET("/departments/new", es.h.HandleDepartmentNew)
	authed.POST("/departments", es.h.HandleDepartmentCreate)
	authed.GET("/departments/:id/edit", es.h.HandleDepartmentEdit)
	authed.POST("/departments/:id", es.h.HandleDepartmentUpdate)
	authed.POST("/departments/:id/delete", es.h.HandleDepartmentDelete)

	es.e.Static("/static", "web/static")
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	return es.e.StartServer(server)
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	return es.e.Shutdown(ctx)
}
