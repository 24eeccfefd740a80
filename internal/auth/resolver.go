package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials is the generic authentication failure. The specific
// variants below wrap it so handlers can render one message ("Invalid
// username or password") while logs keep the real reason.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrInvalidCredentials)
	ErrAccountDisabled  = fmt.Errorf("%w: account disabled", ErrInvalidCredentials)
	ErrPasswordMismatch = fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
)

// Registration validation failures. These carry no enumeration risk and are
// surfaced to the user verbatim.
var (
	ErrPasswordsDoNotMatch = errors.New("passwords do not match")
	ErrUsernameTaken       = errors.New("username already exists")
)

// ErrCredentialNotFound is returned by CredentialStore lookups for unknown
// usernames.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential is the persisted credential-store row.
type Credential struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Email        string
	Role         Role
	Enabled      bool
	ProfileID    int64
}

// CredentialStore is the persistence boundary the resolver depends on.
// Create must arbitrate username uniqueness (unique constraint) and return
// ErrUsernameTaken on conflict; the Exists pre-check is a fast path only.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (Credential, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, cred Credential) (Credential, error)
}

// Resolver verifies submitted credentials and registers new accounts.
type Resolver struct {
	Store CredentialStore
}

func NewResolver(store CredentialStore) *Resolver {
	return &Resolver{Store: store}
}

// Authenticate verifies username/password against the credential store and
// produces the Principal for this identity. It has no side effects: no
// lockout counters are kept.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return Principal{}, ErrUserNotFound
	}

	cred, err := r.Store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, err
	}
	if !cred.Enabled {
		return Principal{}, ErrAccountDisabled
	}

	match, err := ComparePassword(password, cred.PasswordHash)
	if err != nil {
		return Principal{}, err
	}
	if !match {
		return Principal{}, ErrPasswordMismatch
	}

	return principalFor(cred), nil
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Email           string
	Role            Role
}

// Register creates a new enabled account and its linked profile record. The
// raw password is hashed before it reaches the store and never persisted.
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (Principal, error) {
	in.Username = NormalizeUsername(in.Username)
	if in.Username == "" {
		return Principal{}, errors.New("username is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return Principal{}, errors.New("password is required")
	}
	if in.Password != in.ConfirmPassword {
		return Principal{}, ErrPasswordsDoNotMatch
	}

	// Fast path; the store's unique constraint is the real arbiter.
	if taken, err := r.Store.Exists(ctx, in.Username); err != nil {
		return Principal{}, err
	} else if taken {
		return Principal{}, ErrUsernameTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Principal{}, err
	}

	cred, err := r.Store.Create(ctx, Credential{
		Username:     in.Username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Email:        strings.TrimSpace(in.Email),
		Role:         in.Role,
		Enabled:      true,
	})
	if err != nil {
		return Principal{}, err
	}

	return principalFor(cred), nil
}

func principalFor(cred Credential) Principal {
	return Principal{
		IdentityID:  cred.ID,
		Username:    cred.Username,
		DisplayName: cred.DisplayName,
		Role:        cred.Role,
		ProfileID:   cred.ProfileID,
	}
}
