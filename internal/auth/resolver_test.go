package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// memCredentialStore arbitrates username uniqueness under a mutex, the way
// the database unique index does in production.
type memCredentialStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]Credential
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{byName: make(map[string]Credential)}
}

func (s *memCredentialStore) GetByUsername(_ context.Context, username string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byName[NormalizeUsername(username)]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return cred, nil
}

func (s *memCredentialStore) Exists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byName[NormalizeUsername(username)]
	return ok, nil
}

func (s *memCredentialStore) Create(_ context.Context, cred Credential) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := NormalizeUsername(cred.Username)
	if _, ok := s.byName[name]; ok {
		return Credential{}, ErrUsernameTaken
	}
	s.nextID++
	cred.ID = s.nextID
	cred.ProfileID = s.nextID + 1000
	cred.Username = name
	s.byName[name] = cred
	return cred, nil
}

func mustRegister(t *testing.T, r *Resolver, username, password string, role Role) Principal {
	t.Helper()
	p, err := r.Register(context.Background(), RegisterInput{
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
		DisplayName:     "Test User",
		Role:            role,
	})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	return p
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	r := NewResolver(newMemCredentialStore())
	registered := mustRegister(t, r, "ada", "correct horse", RoleStudent)

	p, err := r.Authenticate(context.Background(), "ada", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if p.IdentityID != registered.IdentityID {
		t.Fatalf("IdentityID = %d, want %d", p.IdentityID, registered.IdentityID)
	}
	if p.Role != RoleStudent {
		t.Fatalf("Role = %q, want %q", p.Role, RoleStudent)
	}
	if p.ProfileID != registered.ProfileID {
		t.Fatalf("ProfileID = %d, want %d", p.ProfileID, registered.ProfileID)
	}
}

func TestAuthenticate_FailuresAllMatchGenericError(t *testing.T) {
	t.Parallel()

	store := newMemCredentialStore()
	r := NewResolver(store)
	mustRegister(t, r, "ada", "correct horse", RoleStudent)

	disabled := store.byName["ada"]
	disabled.Username = "off"
	disabled.Enabled = false
	store.byName["off"] = disabled

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{name: "unknown_user", username: "nobody", password: "x", want: ErrUserNotFound},
		{name: "empty_username", username: "", password: "x", want: ErrUserNotFound},
		{name: "wrong_password", username: "ada", password: "wrong", want: ErrPasswordMismatch},
		{name: "disabled_account", username: "off", password: "correct horse", want: ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Authenticate(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			// Each specific reason still reads as the one generic failure.
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("error = %v, want it to wrap ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	t.Parallel()

	store := newMemCredentialStore()
	r := NewResolver(store)
	mustRegister(t, r, "ada", "correct horse", RoleTeacher)

	cred := store.byName["ada"]
	if cred.PasswordHash == "correct horse" || cred.PasswordHash == "" {
		t.Fatalf("PasswordHash = %q, want an argon2id hash", cred.PasswordHash)
	}
	if !cred.Enabled {
		t.Fatal("Enabled = false, want true on registration")
	}

	match, err := ComparePassword("correct horse", cred.PasswordHash)
	if err != nil {
		t.Fatalf("ComparePassword() error = %v", err)
	}
	if !match {
		t.Fatal("stored hash does not verify the original password")
	}
}

func TestRegister_PasswordsDoNotMatch(t *testing.T) {
	t.Parallel()

	r := NewResolver(newMemCredentialStore())
	_, err := r.Register(context.Background(), RegisterInput{
		Username:        "ada",
		Password:        "one",
		ConfirmPassword: "two",
		DisplayName:     "Ada",
		Role:            RoleStudent,
	})
	if !errors.Is(err, ErrPasswordsDoNotMatch) {
		t.Fatalf("error = %v, want ErrPasswordsDoNotMatch", err)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	t.Parallel()

	r := NewResolver(newMemCredentialStore())
	mustRegister(t, r, "ada", "pw123456", RoleStudent)

	_, err := r.Register(context.Background(), RegisterInput{
		Username:        "ADA", // normalization collapses case
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
		DisplayName:     "Someone Else",
		Role:            RoleTeacher,
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("error = %v, want ErrUsernameTaken", err)
	}
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	t.Parallel()

	r := NewResolver(newMemCredentialStore())
	const attempts = 16

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = r.Register(context.Background(), RegisterInput{
				Username:        "ada",
				Password:        "pw123456",
				ConfirmPassword: "pw123456",
				DisplayName:     "Ada",
				Role:            RoleStudent,
			})
		}(i)
	}
	wg.Wait()

	successes, taken := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrUsernameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	if taken != attempts-1 {
		t.Fatalf("taken = %d, want %d", taken, attempts-1)
	}
}
