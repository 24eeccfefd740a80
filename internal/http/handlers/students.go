package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/authz"
	"github.com/campusbook/campusbook/internal/http/authn"
	"github.com/campusbook/campusbook/internal/http/views"
	"github.com/campusbook/campusbook/internal/model"
	"github.com/campusbook/campusbook/internal/store"
)

func (h *Handlers) HandleStudents(c echo.Context) error {
	if d := h.Decide(c, authz.ActionRead, authz.Resource{Kind: authz.KindStudent}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	students, err := h.Students.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "students", views.StudentListData{
		BaseData: h.BaseData(c, "Students"),
		Students: students,
	})
}

func (h *Handlers) HandleStudentView(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionRead, authz.Resource{Kind: authz.KindStudent, OwnerID: id}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	student, err := h.Students.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}

	courses, err := h.coursesByIDs(c, student.CourseIDs)
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "student_view", views.StudentViewData{
		BaseData: h.BaseData(c, student.Name),
		Student:  student,
		Courses:  courses,
	})
}

func (h *Handlers) HandleStudentNew(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindStudent}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	courses, err := h.Courses.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "student_form", views.StudentFormData{
		BaseData:   h.BaseData(c, "Add student"),
		Courses:    courses,
		CanSetRole: false, // new students always start as STUDENT
	})
}

func (h *Handlers) HandleStudentCreate(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindStudent}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	student := model.Student{
		Name:  strings.TrimSpace(c.FormValue("name")),
		Roll:  strings.TrimSpace(c.FormValue("roll")),
		Email: strings.TrimSpace(c.FormValue("email")),
		// Always created as STUDENT; promotion is a separate teacher edit.
		Role:      auth.RoleStudent,
		CourseIDs: formIDList(c, "course_ids"),
	}
	if student.Name == "" {
		setFlash(c, views.Flash{Category: "error", Message: "Student name is required"})
		return c.Redirect(http.StatusSeeOther, "/students/new")
	}

	if _, err := h.Students.Create(c.Request().Context(), student); err != nil {
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Student created successfully"})
	return c.Redirect(http.StatusSeeOther, "/students")
}

func (h *Handlers) HandleStudentEdit(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindStudent, OwnerID: id}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	student, err := h.Students.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}

	courses, err := h.Courses.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	p, _ := authn.PrincipalFromContext(c)
	return h.RenderPage(c, "student_form", views.StudentFormData{
		BaseData:   h.BaseData(c, "Edit student"),
		IsEdit:     true,
		Student:    student,
		Courses:    courses,
		CanSetRole: authz.CanSetRole(p),
	})
}

func (h *Handlers) HandleStudentUpdate(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindStudent, OwnerID: id}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	ctx := c.Request().Context()
	existing, err := h.Students.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}

	// Whitelisted field application: the payload is never copied onto the
	// record wholesale. Role only moves when the caller may set it.
	p, _ := authn.PrincipalFromContext(c)
	updated := existing
	updated.Name = strings.TrimSpace(c.FormValue("name"))
	updated.Roll = strings.TrimSpace(c.FormValue("roll"))
	updated.Email = strings.TrimSpace(c.FormValue("email"))
	updated.CourseIDs = formIDList(c, "course_ids")
	if authz.CanSetRole(p) {
		if role, err := auth.ParseRole(c.FormValue("role")); err == nil {
			updated.Role = role
		}
	}

	if err := h.Students.Update(ctx, updated); err != nil {
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Student updated successfully"})
	return c.Redirect(http.StatusSeeOther, "/students")
}

func (h *Handlers) HandleStudentDelete(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionDelete, authz.Resource{Kind: authz.KindStudent, OwnerID: id}); !d.Allowed {
		return h.denyStudents(c, d)
	}

	if err := h.Students.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Student deleted successfully"})
	return c.Redirect(http.StatusSeeOther, "/students")
}

func (h *Handlers) denyStudents(c echo.Context, d authz.Decision) error {
	return h.denyTo(c, d, "/students")
}

// denyTo surfaces a Deny: anonymous callers go to login, everyone else back
// to the resource list with a flash error.
func (h *Handlers) denyTo(c echo.Context, d authz.Decision, listPath string) error {
	switch d.Reason {
	case authz.ReasonNoPrincipal:
		return c.Redirect(http.StatusSeeOther, "/auth/login")
	case authz.ReasonNotOwner:
		setFlash(c, views.Flash{Category: "error", Message: "You can only edit your own profile"})
		return c.Redirect(http.StatusSeeOther, listPath)
	default:
		setFlash(c, views.Flash{Category: "error", Message: "Only teachers can do that"})
		return c.Redirect(http.StatusSeeOther, listPath)
	}
}

func (h *Handlers) coursesByIDs(c echo.Context, ids []int64) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	all, err := h.Courses.List(c.Request().Context())
	if err != nil {
		return nil, err
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var courses []model.Course
	for _, course := range all {
		if want[course.ID] {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func formIDList(c echo.Context, field string) []int64 {
	values, err := c.FormParams()
	if err != nil {
		return nil
	}
	return parseIDList(values[field])
}
