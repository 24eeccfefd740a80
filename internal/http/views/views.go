// Package views renders the server-side HTML pages. The markup is
// deliberately minimal; the pages exist to exercise the auth and records
// flows, not to be a product UI.
package views

import (
	"html/template"
	"io"

	"github.com/campusbook/campusbook/internal/model"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Category string // success | error
	Message  string
}

// BaseData is shared by every page.
type BaseData struct {
	Title       string
	SignedIn    bool
	DisplayName string
	IsTeacher   bool
	CSRFToken   string
	Flash       *Flash
}

type HomeData struct {
	BaseData
}

type LoginData struct {
	BaseData
	Username       string
	Next           string
	ErrorMessage   string
	SuccessMessage string
	DemoEnabled    bool
}

type RegisterForm struct {
	Username    string
	DisplayName string
	Email       string
	Role        string
}

type RegisterData struct {
	BaseData
	Form         RegisterForm
	ErrorMessage string
}

type StudentListData struct {
	BaseData
	Students []model.Student
}

type StudentFormData struct {
	BaseData
	IsEdit     bool
	Student    model.Student
	Courses    []model.Course
	CanSetRole bool
}

type StudentViewData struct {
	BaseData
	Student model.Student
	Courses []model.Course
}

type TeacherListData struct {
	BaseData
	Teachers []model.Teacher
}

type TeacherFormData struct {
	BaseData
	IsEdit      bool
	Teacher     model.Teacher
	Departments []model.Department
	Students    []model.Student
}

type CourseListData struct {
	BaseData
	Courses []model.Course
}

type CourseFormData struct {
	BaseData
	IsEdit      bool
	Course      model.Course
	Departments []model.Department
}

type DepartmentListData struct {
	BaseData
	Departments []model.Department
}

type DepartmentFormData struct {
	BaseData
	IsEdit     bool
	Department model.Department
}

type AccessDeniedData struct {
	BaseData
}

// Render writes the named page.
func Render(w io.Writer, name string, data any) error {
	return pages.ExecuteTemplate(w, name, data)
}

var pages = template.Must(template.New("pages").Parse(pageTemplates))

const pageTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} - campusbook</title><link rel="stylesheet" href="/static/site.css"></head>
<body>
<nav>
  <a href="/">Home</a>
  {{if .SignedIn}}
  <a href="/students">Students</a>
  <a href="/teachers">Teachers</a>
  <a href="/courses">Courses</a>
  <a href="/departments">Departments</a>
  <span>{{.DisplayName}}</span>
  <form method="post" action="/auth/logout">
    <input type="hidden" name="csrf" value="{{.CSRFToken}}">
    <button type="submit">Log out</button>
  </form>
  {{else}}
  <a href="/auth/login">Log in</a>
  <a href="/auth/register">Register</a>
  {{end}}
</nav>
{{with .Flash}}<p class="flash {{.Category}}">{{.Message}}</p>{{end}}
{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "home"}}{{template "head" .}}
<h1>campusbook</h1>
{{if .SignedIn}}<p>Signed in as {{.DisplayName}}.</p>{{else}}<p>Welcome. Please log in.</p>{{end}}
{{template "foot" .}}{{end}}

{{define "login"}}{{template "head" .}}
<h1>Log in</h1>
{{if .ErrorMessage}}<p class="error">{{.ErrorMessage}}</p>{{end}}
{{if .SuccessMessage}}<p class="success">{{.SuccessMessage}}</p>{{end}}
<form method="post" action="/auth/login">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <input type="hidden" name="next" value="{{.Next}}">
  <label>Username <input name="username" value="{{.Username}}"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Log in</button>
</form>
{{if .DemoEnabled}}
<form method="post" action="/auth/demo-login">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Display name <input name="display_name"></label>
  <label>Role
    <select name="role">
      <option value="STUDENT">Student</option>
      <option value="TEACHER">Teacher</option>
    </select>
  </label>
  <button type="submit">Demo log in</button>
</form>
{{end}}
{{template "foot" .}}{{end}}

{{define "register"}}{{template "head" .}}
<h1>Register</h1>
{{if .ErrorMessage}}<p class="error">{{.ErrorMessage}}</p>{{end}}
<form method="post" action="/auth/register">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Username <input name="username" value="{{.Form.Username}}"></label>
  <label>Name <input name="display_name" value="{{.Form.DisplayName}}"></label>
  <label>Email <input name="email" value="{{.Form.Email}}"></label>
  <label>Role
    <select name="role">
      <option value="STUDENT" {{if eq .Form.Role "STUDENT"}}selected{{end}}>Student</option>
      <option value="TEACHER" {{if eq .Form.Role "TEACHER"}}selected{{end}}>Teacher</option>
    </select>
  </label>
  <label>Password <input type="password" name="password"></label>
  <label>Confirm password <input type="password" name="confirm_password"></label>
  <button type="submit">Register</button>
</form>
{{template "foot" .}}{{end}}

{{define "access_denied"}}{{template "head" .}}
<h1>Access denied</h1>
<p>You are not allowed to perform that action.</p>
{{template "foot" .}}{{end}}

{{define "students"}}{{template "head" .}}
<h1>Students</h1>
{{if .IsTeacher}}<p><a href="/students/new">Add student</a></p>{{end}}
<table>
  <tr><th>ID</th><th>Name</th><th>Roll</th><th>Email</th><th>Role</th><th></th></tr>
  {{range .Students}}
  <tr>
    <td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Roll}}</td><td>{{.Email}}</td><td>{{.Role}}</td>
    <td>
      <a href="/students/{{.ID}}">View</a>
      <a href="/students/{{.ID}}/edit">Edit</a>
      {{if $.IsTeacher}}
      <form method="post" action="/students/{{.ID}}/delete">
        <input type="hidden" name="csrf" value="{{$.CSRFToken}}">
        <button type="submit">Delete</button>
      </form>
      {{end}}
    </td>
  </tr>
  {{end}}
</table>
{{template "foot" .}}{{end}}

{{define "student_form"}}{{template "head" .}}
<h1>{{if .IsEdit}}Edit student{{else}}Add student{{end}}</h1>
<form method="post" action="{{if .IsEdit}}/students/{{.Student.ID}}{{else}}/students{{end}}">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Name <input name="name" value="{{.Student.Name}}"></label>
  <label>Roll <input name="roll" value="{{.Student.Roll}}"></label>
  <label>Email <input name="email" value="{{.Student.Email}}"></label>
  {{if .CanSetRole}}
  <label>Role
    <select name="role">
      <option value="STUDENT" {{if eq .Student.Role "STUDENT"}}selected{{end}}>Student</option>
      <option value="TEACHER" {{if eq .Student.Role "TEACHER"}}selected{{end}}>Teacher</option>
    </select>
  </label>
  {{end}}
  <fieldset>
    <legend>Courses</legend>
    {{range .Courses}}
    <label><input type="checkbox" name="course_ids" value="{{.ID}}">{{.Title}}</label>
    {{end}}
  </fieldset>
  <button type="submit">Save</button>
</form>
{{template "foot" .}}{{end}}

{{define "student_view"}}{{template "head" .}}
<h1>{{.Student.Name}}</h1>
<p>Roll: {{.Student.Roll}}</p>
<p>Email: {{.Student.Email}}</p>
<p>Role: {{.Student.Role}}</p>
<h2>Courses</h2>
<ul>{{range .Courses}}<li>{{.Title}}</li>{{end}}</ul>
{{template "foot" .}}{{end}}

{{define "teachers"}}{{template "head" .}}
<h1>Teachers</h1>
{{if .IsTeacher}}<p><a href="/teachers/new">Add teacher</a></p>{{end}}
<table>
  <tr><th>ID</th><th>Name</th><th>Email</th><th></th></tr>
  {{range .Teachers}}
  <tr>
    <td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Email}}</td>
    <td>
      {{if $.IsTeacher}}
      <a href="/teachers/{{.ID}}/edit">Edit</a>
      <form method="post" action="/teachers/{{.ID}}/delete">
        <input type="hidden" name="csrf" value="{{$.CSRFToken}}">
        <button type="submit">Delete</button>
      </form>
      {{end}}
    </td>
  </tr>
  {{end}}
</table>
{{template "foot" .}}{{end}}

{{define "teacher_form"}}{{template "head" .}}
<h1>{{if .IsEdit}}Edit teacher{{else}}Add teacher{{end}}</h1>
<form method="post" action="{{if .IsEdit}}/teachers/{{.Teacher.ID}}{{else}}/teachers{{end}}">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Name <input name="name" value="{{.Teacher.Name}}"></label>
  <label>Email <input name="email" value="{{.Teacher.Email}}"></label>
  <label>Department
    <select name="department_id">
      <option value="">None</option>
      {{range .Departments}}<option value="{{.ID}}">{{.Name}}</option>{{end}}
    </select>
  </label>
  <fieldset>
    <legend>Students</legend>
    {{range .Students}}
    <label><input type="checkbox" name="student_ids" value="{{.ID}}">{{.Name}}</label>
    {{end}}
  </fieldset>
  <button type="submit">Save</button>
</form>
{{template "foot" .}}{{end}}

{{define "courses"}}{{template "head" .}}
<h1>Courses</h1>
{{if .IsTeacher}}<p><a href="/courses/new">Add course</a></p>{{end}}
<table>
  <tr><th>ID</th><th>Code</th><th>Title</th><th></th></tr>
  {{range .Courses}}
  <tr>
    <td>{{.ID}}</td><td>{{.Code}}</td><td>{{.Title}}</td>
    <td>
      {{if $.IsTeacher}}
      <a href="/courses/{{.ID}}/edit">Edit</a>
      <form method="post" action="/courses/{{.ID}}/delete">
        <input type="hidden" name="csrf" value="{{$.CSRFToken}}">
        <button type="submit">Delete</button>
      </form>
      {{end}}
    </td>
  </tr>
  {{end}}
</table>
{{template "foot" .}}{{end}}

{{define "course_form"}}{{template "head" .}}
<h1>{{if .IsEdit}}Edit course{{else}}Add course{{end}}</h1>
<form method="post" action="{{if .IsEdit}}/courses/{{.Course.ID}}{{else}}/courses{{end}}">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Title <input name="title" value="{{.Course.Title}}"></label>
  <label>Code <input name="code" value="{{.Course.Code}}"></label>
  <label>Department
    <select name="department_id">
      <option value="">None</option>
      {{range .Departments}}<option value="{{.ID}}">{{.Name}}</option>{{end}}
    </select>
  </label>
  <button type="submit">Save</button>
</form>
{{template "foot" .}}{{end}}

{{define "departments"}}{{template "head" .}}
<h1>Departments</h1>
{{if .IsTeacher}}<p><a href="/departments/new">Add department</a></p>{{end}}
<table>
  <tr><th>ID</th><th>Name</th><th></th></tr>
  {{range .Departments}}
  <tr>
    <td>{{.ID}}</td><td>{{.Name}}</td>
    <td>
      {{if $.IsTeacher}}
      <a href="/departments/{{.ID}}/edit">Edit</a>
      <form method="post" action="/departments/{{.ID}}/delete">
        <input type="hidden" name="csrf" value="{{$.CSRFToken}}">
        <button type="submit">Delete</button>
      </form>
      {{end}}
    </td>
  </tr>
  {{end}}
</table>
{{template "foot" .}}{{end}}

{{define "department_form"}}{{template "head" .}}
<h1>{{if .IsEdit}}Edit department{{else}}Add department{{end}}</h1>
<form method="post" action="{{if .IsEdit}}/departments/{{.Department.ID}}{{else}}/departments{{end}}">
  <input type="hidden" name="csrf" value="{{.CSRFToken}}">
  <label>Name <input name="name" value="{{.Department.Name}}"></label>
  <button type="submit">Save</button>
</form>
{{template "foot" .}}{{end}}
`
