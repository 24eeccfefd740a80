package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/config"
	"github.com/campusbook/campusbook/internal/http/authn"
	"github.com/campusbook/campusbook/internal/http/views"
	"github.com/campusbook/campusbook/internal/model"
	"github.com/campusbook/campusbook/internal/session"
	"github.com/campusbook/campusbook/internal/store"
)

// fakeStudentStore is a map-backed StudentStore for handler tests.
type fakeStudentStore struct {
	nextID   int64
	students map[int64]model.Student
	updates  int
}

func newFakeStudentStore(seed ...model.Student) *fakeStudentStore {
	s := &fakeStudentStore{students: make(map[int64]model.Student)}
	for _, st := range seed {
		s.students[st.ID] = st
		if st.ID > s.nextID {
			s.nextID = st.ID
		}
	}
	return s
}

func (s *fakeStudentStore) List(context.Context) ([]model.Student, error) {
	out := make([]model.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	return out, nil
}

func (s *fakeStudentStore) Get(_ context.Context, id int64) (model.Student, error) {
	st, ok := s.students[id]
	if !ok {
		return model.Student{}, store.ErrNotFound
	}
	return st, nil
}

func (s *fakeStudentStore) Create(_ context.Context, st model.Student) (model.Student, error) {
	s.nextID++
	st.ID = s.nextID
	s.students[st.ID] = st
	return st, nil
}

func (s *fakeStudentStore) Update(_ context.Context, st model.Student) error {
	if _, ok := s.students[st.ID]; !ok {
		return store.ErrNotFound
	}
	s.students[st.ID] = st
	s.updates++
	return nil
}

func (s *fakeStudentStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

// fakeDepartmentStore records creates so tests can assert no mutation happened.
type fakeDepartmentStore struct {
	nextID      int64
	departments map[int64]model.Department
	creates     int
}

func newFakeDepartmentStore() *fakeDepartmentStore {
	return &fakeDepartmentStore{departments: make(map[int64]model.Department)}
}

func (s *fakeDepartmentStore) List(context.Context) ([]model.Department, error) {
	out := make([]model.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeDepartmentStore) Get(_ context.Context, id int64) (model.Department, error) {
	d, ok := s.departments[id]
	if !ok {
		return model.Department{}, store.ErrNotFound
	}
	return d, nil
}

func (s *fakeDepartmentStore) Create(_ context.Context, d model.Department) (model.Department, error) {
	s.nextID++
	d.ID = s.nextID
	s.departments[d.ID] = d
	s.creates++
	return d, nil
}

func (s *fakeDepartmentStore) Update(_ context.Context, d model.Department) error {
	if _, ok := s.departments[d.ID]; !ok {
		return store.ErrNotFound
	}
	s.departments[d.ID] = d
	return nil
}

func (s *fakeDepartmentStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.departments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.departments, id)
	return nil
}

// fakeCourseStore satisfies the course lookups handlers run while rendering.
type fakeCourseStore struct {
	courses []model.Course
}

func (s *fakeCourseStore) List(context.Context) ([]model.Course, error) { return s.courses, nil }

func (s *fakeCourseStore) Get(_ context.Context, id int64) (model.Course, error) {
	for _, c := range s.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Course{}, store.ErrNotFound
}

func (s *fakeCourseStore) Create(_ context.Context, c model.Course) (model.Course, error) {
	c.ID = int64(len(s.courses) + 1)
	s.courses = append(s.courses, c)
	return c, nil
}

func (s *fakeCourseStore) Update(context.Context, model.Course) error { return nil }
func (s *fakeCourseStore) Delete(context.Context, int64) error       { return nil }

// fakeCredentialStore backs the resolver in login and register tests.
type fakeCredentialStore struct {
	nextID int64
	byName map[string]auth.Credential
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{byName: make(map[string]auth.Credential)}
}

func (s *fakeCredentialStore) GetByUsername(_ context.Context, username string) (auth.Credential, error) {
	cred, ok := s.byName[auth.NormalizeUsername(username)]
	if !ok {
		return auth.Credential{}, auth.ErrCredentialNotFound
	}
	return cred, nil
}

func (s *fakeCredentialStore) Exists(_ context.Context, username string) (bool, error) {
	_, ok := s.byName[auth.NormalizeUsername(username)]
	return ok, nil
}

func (s *fakeCredentialStore) Create(_ context.Context, cred auth.Credential) (auth.Credential, error) {
	name := auth.NormalizeUsername(cred.Username)
	if _, ok := s.byName[name]; ok {
		return auth.Credential{}, auth.ErrUsernameTaken
	}
	s.nextID++
	cred.ID = s.nextID
	cred.ProfileID = s.nextID
	cred.Username = name
	s.byName[name] = cred
	return cred, nil
}

func newTestHandlers(students *fakeStudentStore, departments *fakeDepartmentStore, creds auth.CredentialStore) *Handlers {
	if students == nil {
		students = newFakeStudentStore()
	}
	if departments == nil {
		departments = newFakeDepartmentStore()
	}
	if creds == nil {
		creds = newFakeCredentialStore()
	}
	return &Handlers{
		Cfg:         config.Config{},
		Sessions:    session.NewManager(),
		Resolver:    auth.NewResolver(creds),
		Students:    students,
		Courses:     &fakeCourseStore{},
		Departments: departments,
	}
}

// postContext builds an echo context for a form POST, optionally carrying an
// authenticated principal, the way the session middleware would set it up.
func postContext(t *testing.T, target string, form url.Values, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(authn.ContextKeyPrincipal, *p)
	}
	return c, rec
}

func recordedFlash(t *testing.T, rec *httptest.ResponseRecorder) *views.Flash {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name != flashCookieName || cookie.Value == "" {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
		if err != nil {
			t.Fatalf("flash cookie decode error = %v", err)
		}
		var flash views.Flash
		if err := json.Unmarshal(raw, &flash); err != nil {
			t.Fatalf("flash cookie unmarshal error = %v", err)
		}
		return &flash
	}
	return nil
}

func TestHandleStudentUpdate_TeacherCanChangeRole(t *testing.T) {
	students := newFakeStudentStore(model.Student{
		ID: 7, Name: "Ada", Roll: "S-7", Email: "ada@example.edu", Role: auth.RoleStudent,
	})
	h := newTestHandlers(students, nil, nil)

	teacher := &auth.Principal{IdentityID: 1, Role: auth.RoleTeacher, ProfileID: 99}
	c, rec := postContext(t, "/students/7", url.Values{
		"name":  {"Ada Lovelace"},
		"roll":  {"S-7"},
		"email": {"ada@example.edu"},
		"role":  {"TEACHER"},
	}, teacher)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.HandleStudentUpdate(c); err != nil {
		t.Fatalf("HandleStudentUpdate() error = %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	got := students.students[7]
	if got.Role != auth.RoleTeacher {
		t.Fatalf("Role = %q, want %q", got.Role, auth.RoleTeacher)
	}
	if got.Name != "Ada Lovelace" {
		t.Fatalf("Name = %q, want %q", got.Name, "Ada Lovelace")
	}
}

func TestHandleStudentUpdate_SelfEditIgnoresRolePayload(t *testing.T) {
	students := newFakeStudentStore(model.Student{
		ID: 7, Name: "Ada", Roll: "S-7", Email: "ada@example.edu", Role: auth.RoleStudent,
	})
	h := newTestHandlers(students, nil, nil)

	// ProfileID matches the record id, so this is a self-edit.
	self := &auth.Principal{IdentityID: 2, Role: auth.RoleStudent, ProfileID: 7}
	c, rec := postContext(t, "/students/7", url.Values{
		"name":  {"Ada L."},
		"roll":  {"S-7b"},
		"email": {"ada@example.edu"},
		"role":  {"TEACHER"}, // forged payload; must not stick
	}, self)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.HandleStudentUpdate(c); err != nil {
		t.Fatalf("HandleStudentUpdate() error = %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	got := students.students[7]
	if got.Role != auth.RoleStudent {
		t.Fatalf("Role = %q, want it to remain %q", got.Role, auth.RoleStudent)
	}
	if got.Name != "Ada L." || got.Roll != "S-7b" {
		t.Fatalf("fields not applied: Name = %q, Roll = %q", got.Name, got.Roll)
	}
}

func TestHandleStudentUpdate_OtherStudentDenied(t *testing.T) {
	students := newFakeStudentStore(model.Student{
		ID: 7, Name: "Ada", Role: auth.RoleStudent,
	})
	h := newTestHandlers(students, nil, nil)

	other := &auth.Principal{IdentityID: 3, Role: auth.RoleStudent, ProfileID: 8}
	c, rec := postContext(t, "/students/7", url.Values{
		"name": {"Mallory"},
	}, other)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.HandleStudentUpdate(c); err != nil {
		t.Fatalf("HandleStudentUpdate() error = %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got, want := rec.Header().Get("Location"), "/students"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}

	if students.updates != 0 {
		t.Fatalf("updates = %d, want 0 after a deny", students.updates)
	}
	if students.students[7].Name != "Ada" {
		t.Fatalf("Name = %q, record must be untouched", students.students[7].Name)
	}

	flash := recordedFlash(t, rec)
	if flash == nil || flash.Category != "error" {
		t.Fatalf("flash = %+v, want an error flash", flash)
	}
}

func TestHandleStudentCreate_StudentDenied(t *testing.T) {
	students := newFakeStudentStore()
	h := newTestHandlers(students, nil, nil)

	student := &auth.Principal{IdentityID: 4, Role: auth.RoleStudent, ProfileID: 4}
	c, rec := postContext(t, "/students", url.Values{"name": {"New Kid"}}, student)

	if err := h.HandleStudentCreate(c); err != nil {
		t.Fatalf("HandleStudentCreate() error = %v", err)
	}
	if got, want := rec.Header().Get("Location"), "/students"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if len(students.students) != 0 {
		t.Fatalf("students = %d, want 0 after a deny", len(students.students))
	}
}

func TestHandleDepartmentCreate_AnonymousRedirectsToLogin(t *testing.T) {
	departments := newFakeDepartmentStore()
	h := newTestHandlers(nil, departments, nil)

	c, rec := postContext(t, "/departments", url.Values{"name": {"Physics"}}, nil)

	if err := h.HandleDepartmentCreate(c); err != nil {
		t.Fatalf("HandleDepartmentCreate() error = %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got, want := rec.Header().Get("Location"), "/auth/login"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if departments.creates != 0 {
		t.Fatalf("creates = %d, want 0 for an anonymous caller", departments.creates)
	}
}

func TestHandleLoginPost_InvalidCredentials(t *testing.T) {
	h := newTestHandlers(nil, nil, nil)

	c, rec := postContext(t, "/auth/login", url.Values{
		"username": {"nobody"},
		"password": {"wrong"},
	}, nil)

	if err := h.HandleLoginPost(c); err != nil {
		t.Fatalf("HandleLoginPost() error = %v", err)
	}
	if got, want := rec.Header().Get("Location"), "/auth/login?error=true"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if h.Sessions.Count() != 0 {
		t.Fatalf("sessions = %d, want 0 after a failed login", h.Sessions.Count())
	}
}

func TestHandleLoginPost_SuccessSetsCookieAndFollowsNext(t *testing.T) {
	creds := newFakeCredentialStore()
	h := newTestHandlers(nil, nil, creds)

	if _, err := h.Resolver.Register(context.Background(), auth.RegisterInput{
		Username:        "ada",
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
		DisplayName:     "Ada",
		Role:            auth.RoleStudent,
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	c, rec := postContext(t, "/auth/login", url.Values{
		"username": {"ada"},
		"password": {"pw123456"},
		"next":     {"/students/1/edit"},
	}, nil)

	if err := h.HandleLoginPost(c); err != nil {
		t.Fatalf("HandleLoginPost() error = %v", err)
	}
	if got, want := rec.Header().Get("Location"), "/students/1/edit"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}

	var token string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == authn.SessionCookieName {
			token = cookie.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie set on successful login")
	}
	if p, status := h.Sessions.Resolve(token); status != session.StatusActive || p.Username != "ada" {
		t.Fatalf("Resolve(token) = (%+v, %v), want active session for ada", p, status)
	}
}

func TestHandleLogoutPost_InvalidatesSession(t *testing.T) {
	h := newTestHandlers(nil, nil, nil)
	token := h.Sessions.Create(auth.Principal{IdentityID: 1, Role: auth.RoleStudent})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: authn.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleLogoutPost(c); err != nil {
		t.Fatalf("HandleLogoutPost() error = %v", err)
	}
	if got, want := rec.Header().Get("Location"), "/auth/login?logout=true"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if h.Sessions.Count() != 0 {
		t.Fatalf("sessions = %d, want 0 after logout", h.Sessions.Count())
	}
	if _, status := h.Sessions.Resolve(token); status != session.StatusNone {
		t.Fatalf("Resolve(token) status = %v, want %v", status, session.StatusNone)
	}

	cleared := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == authn.SessionCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestHandleRegisterPost_SuccessRedirectsToLogin(t *testing.T) {
	creds := newFakeCredentialStore()
	h := newTestHandlers(nil, nil, creds)

	c, rec := postContext(t, "/auth/register", url.Values{
		"username":         {"ada"},
		"display_name":     {"Ada Lovelace"},
		"email":            {"ada@example.edu"},
		"role":             {"student"},
		"password":         {"pw123456"},
		"confirm_password": {"pw123456"},
	}, nil)

	if err := h.HandleRegisterPost(c); err != nil {
		t.Fatalf("HandleRegisterPost() error = %v", err)
	}
	if got, want := rec.Header().Get("Location"), "/auth/login"; got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if _, ok := creds.byName["ada"]; !ok {
		t.Fatal("registration did not create the credential record")
	}

	flash := recordedFlash(t, rec)
	if flash == nil || flash.Category != "success" {
		t.Fatalf("flash = %+v, want a success flash", flash)
	}
}

func TestHandleRegisterPost_PasswordsDoNotMatch(t *testing.T) {
	h := newTestHandlers(nil, nil, nil)

	c, rec := postContext(t, "/auth/register", url.Values{
		"username":         {"ada"},
		"display_name":     {"Ada"},
		"role":             {"student"},
		"password":         {"one"},
		"confirm_password": {"two"},
	}, nil)

	if err := h.HandleRegisterPost(c); err != nil {
		t.Fatalf("HandleRegisterPost() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d with the form re-rendered", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Passwords do not match") {
		t.Fatal("expected the error message in the re-rendered form")
	}
}

func TestRenderPage_TemplateFailureYieldsCleanError(t *testing.T) {
	h := newTestHandlers(nil, nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// The students page needs StudentListData; a mismatched payload makes the
	// template fail partway through execution.
	if err := h.RenderPage(c, "students", struct{}{}); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if body := rec.Body.String(); strings.Contains(body, "<html") {
		t.Fatalf("body = %q, want no partial page output", body)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Internal server error.") {
		t.Fatalf("body = %q, want the generic error message", body)
	}
}

func TestHandleLoginGet_FlagsAreMutuallyExclusive(t *testing.T) {
	h := newTestHandlers(nil, nil, nil)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "error_beats_expired", query: "error=true&expired=true", want: "Invalid username or password"},
		{name: "expired", query: "expired=true", want: "Your session has expired"},
		{name: "logout", query: "logout=true", want: "logged out successfully"},
		{name: "expired_beats_logout", query: "expired=true&logout=true", want: "Your session has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/auth/login?"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := h.HandleLoginGet(c); err != nil {
				t.Fatalf("HandleLoginGet() error = %v", err)
			}
			if body := rec.Body.String(); !strings.Contains(body, tt.want) {
				t.Fatalf("body does not contain %q", tt.want)
			}
		})
	}
}
