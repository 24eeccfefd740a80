package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/authz"
	"github.com/campusbook/campusbook/internal/http/views"
	"github.com/campusbook/campusbook/internal/model"
	"github.com/campusbook/campusbook/internal/store"
)

func (h *Handlers) HandleCourses(c echo.Context) error {
	if d := h.Decide(c, authz.ActionRead, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}

	courses, err := h.Courses.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "courses", views.CourseListData{
		BaseData: h.BaseData(c, "Courses"),
		Courses:  courses,
	})
}

func (h *Handlers) HandleCourseNew(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}
	return h.renderCourseForm(c, "Add course", model.Course{}, false)
}

func (h *Handlers) HandleCourseCreate(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}

	course := courseFromForm(c, model.Course{})
	if course.Title == "" {
		setFlash(c, views.Flash{Category: "error", Message: "Course title is required"})
		return c.Redirect(http.StatusSeeOther, "/courses/new")
	}

	if _, err := h.Courses.Create(c.Request().Context(), course); err != nil {
		if errors.Is(err, store.ErrConflict) {
			setFlash(c, views.Flash{Category: "error", Message: "A course with that code already exists"})
			return c.Redirect(http.StatusSeeOther, "/courses/new")
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Course created successfully"})
	return c.Redirect(http.StatusSeeOther, "/courses")
}

func (h *Handlers) HandleCourseEdit(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}

	course, err := h.Courses.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	return h.renderCourseForm(c, "Edit course", course, true)
}

func (h *Handlers) HandleCourseUpdate(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}

	ctx := c.Request().Context()
	existing, err := h.Courses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}

	if err := h.Courses.Update(ctx, courseFromForm(c, existing)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			setFlash(c, views.Flash{Category: "error", Message: "A course with that code already exists"})
			return c.Redirect(http.StatusSeeOther, "/courses")
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Course updated successfully"})
	return c.Redirect(http.StatusSeeOther, "/courses")
}

func (h *Handlers) HandleCourseDelete(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionDelete, authz.Resource{Kind: authz.KindCourse}); !d.Allowed {
		return h.denyTo(c, d, "/courses")
	}

	if err := h.Courses.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Course deleted successfully"})
	return c.Redirect(http.StatusSeeOther, "/courses")
}

func (h *Handlers) renderCourseForm(c echo.Context, title string, course model.Course, isEdit bool) error {
	departments, err := h.Departments.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "course_form", views.CourseFormData{
		BaseData:    h.BaseData(c, title),
		IsEdit:      isEdit,
		Course:      course,
		Departments: departments,
	})
}

func courseFromForm(c echo.Context, existing model.Course) model.Course {
	course := existing
	course.Title = strings.TrimSpace(c.FormValue("title"))
	course.Code = strings.TrimSpace(c.FormValue("code"))
	course.DepartmentID = 0
	if id, ok := parseInt64(c.FormValue("department_id")); ok && id > 0 {
		course.DepartmentID = id
	}
	return course
}
