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

func (h *Handlers) HandleTeachers(c echo.Context) error {
	if d := h.Decide(c, authz.ActionRead, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}

	teachers, err := h.Teachers.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "teachers", views.TeacherListData{
		BaseData: h.BaseData(c, "Teachers"),
		Teachers: teachers,
	})
}

func (h *Handlers) HandleTeacherNew(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}
	return h.renderTeacherForm(c, "Add teacher", model.Teacher{}, false)
}

func (h *Handlers) HandleTeacherCreate(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}

	teacher := teacherFromForm(c, model.Teacher{})
	if teacher.Name == "" {
		setFlash(c, views.Flash{Category: "error", Message: "Teacher name is required"})
		return c.Redirect(http.StatusSeeOther, "/teachers/new")
	}

	if _, err := h.Teachers.Create(c.Request().Context(), teacher); err != nil {
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Teacher created successfully"})
	return c.Redirect(http.StatusSeeOther, "/teachers")
}

func (h *Handlers) HandleTeacherEdit(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}

	teacher, err := h.Teachers.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	return h.renderTeacherForm(c, "Edit teacher", teacher, true)
}

func (h *Handlers) HandleTeacherUpdate(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}

	ctx := c.Request().Context()
	existing, err := h.Teachers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}

	if err := h.Teachers.Update(ctx, teacherFromForm(c, existing)); err != nil {
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Teacher updated successfully"})
	return c.Redirect(http.StatusSeeOther, "/teachers")
}

func (h *Handlers) HandleTeacherDelete(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionDelete, authz.Resource{Kind: authz.KindTeacher}); !d.Allowed {
		return h.denyTo(c, d, "/teachers")
	}

	if err := h.Teachers.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Teacher deleted successfully"})
	return c.Redirect(http.StatusSeeOther, "/teachers")
}

func (h *Handlers) renderTeacherForm(c echo.Context, title string, teacher model.Teacher, isEdit bool) error {
	departments, err := h.Departments.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	students, err := h.Students.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "teacher_form", views.TeacherFormData{
		BaseData:    h.BaseData(c, title),
		IsEdit:      isEdit,
		Teacher:     teacher,
		Departments: departments,
		Students:    students,
	})
}

func teacherFromForm(c echo.Context, existing model.Teacher) model.Teacher {
	t := existing
	t.Name = strings.TrimSpace(c.FormValue("name"))
	t.Email = strings.TrimSpace(c.FormValue("email"))
	t.DepartmentID = 0
	if id, ok := parseInt64(c.FormValue("department_id")); ok && id > 0 {
		t.DepartmentID = id
	}
	t.StudentIDs = formIDList(c, "student_ids")
	return t
}
