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

func (h *Handlers) HandleDepartments(c echo.Context) error {
	if d := h.Decide(c, authz.ActionRead, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}

	departments, err := h.Departments.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "departments", views.DepartmentListData{
		BaseData:    h.BaseData(c, "Departments"),
		Departments: departments,
	})
}

func (h *Handlers) HandleDepartmentNew(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}
	return h.RenderPage(c, "department_form", views.DepartmentFormData{
		BaseData: h.BaseData(c, "Add department"),
	})
}

func (h *Handlers) HandleDepartmentCreate(c echo.Context) error {
	if d := h.Decide(c, authz.ActionCreate, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		setFlash(c, views.Flash{Category: "error", Message: "Department name is required"})
		return c.Redirect(http.StatusSeeOther, "/departments/new")
	}

	if _, err := h.Departments.Create(c.Request().Context(), model.Department{Name: name}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			setFlash(c, views.Flash{Category: "error", Message: "A department with that name already exists"})
			return c.Redirect(http.StatusSeeOther, "/departments/new")
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Department created successfully"})
	return c.Redirect(http.StatusSeeOther, "/departments")
}

func (h *Handlers) HandleDepartmentEdit(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}

	department, err := h.Departments.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	return h.RenderPage(c, "department_form", views.DepartmentFormData{
		BaseData:   h.BaseData(c, "Edit department"),
		IsEdit:     true,
		Department: department,
	})
}

func (h *Handlers) HandleDepartmentUpdate(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionUpdate, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		setFlash(c, views.Flash{Category: "error", Message: "Department name is required"})
		return c.Redirect(http.StatusSeeOther, "/departments")
	}

	err := h.Departments.Update(c.Request().Context(), model.Department{ID: id, Name: name})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		if errors.Is(err, store.ErrConflict) {
			setFlash(c, views.Flash{Category: "error", Message: "A department with that name already exists"})
			return c.Redirect(http.StatusSeeOther, "/departments")
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Department updated successfully"})
	return c.Redirect(http.StatusSeeOther, "/departments")
}

func (h *Handlers) HandleDepartmentDelete(c echo.Context) error {
	id, ok := parseInt64(c.Param("id"))
	if !ok || id <= 0 {
		return RenderNotFound(c)
	}
	if d := h.Decide(c, authz.ActionDelete, authz.Resource{Kind: authz.KindDepartment}); !d.Allowed {
		return h.denyTo(c, d, "/departments")
	}

	if err := h.Departments.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RenderNotFound(c)
		}
		return h.RenderError(c, err)
	}
	setFlash(c, views.Flash{Category: "success", Message: "Department deleted successfully"})
	return c.Redirect(http.StatusSeeOther, "/departments")
}
