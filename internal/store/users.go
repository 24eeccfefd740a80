package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbook/campusbook/internal/auth"
)

// UserRepo is the credential store. It satisfies auth.CredentialStore: the
// users.username unique index is the sole arbiter of username uniqueness.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (auth.Credential, error) {
	const query = `
		SELECT id, username, password_hash, display_name, email, role, enabled, profile_id
		FROM users
		WHERE username = $1`

	var cred auth.Credential
	err := r.pool.QueryRow(ctx, query, auth.NormalizeUsername(username)).Scan(
		&cred.ID, &cred.Username, &cred.PasswordHash, &cred.DisplayName,
		&cred.Email, &cred.Role, &cred.Enabled, &cred.ProfileID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Credential{}, auth.ErrCredentialNotFound
		}
		return auth.Credential{}, fmt.Errorf("get user by username: %w", err)
	}
	return cred, nil
}

func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, auth.NormalizeUsername(username)).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// Create inserts the credential row together with its linked profile record
// (a student or a teacher, by role) in one transaction.
func (r *UserRepo) Create(ctx context.Context, cred auth.Credential) (auth.Credential, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return auth.Credential{}, err
	}
	defer tx.Rollback(ctx)

	switch cred.Role {
	case auth.RoleStudent:
		err = tx.QueryRow(ctx,
			`INSERT INTO students (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
			cred.DisplayName, cred.Email, auth.RoleStudent,
		).Scan(&cred.ProfileID)
	case auth.RoleTeacher:
		err = tx.QueryRow(ctx,
			`INSERT INTO teachers (name, email) VALUES ($1, $2) RETURNING id`,
			cred.DisplayName, cred.Email,
		).Scan(&cred.ProfileID)
	default:
		return auth.Credential{}, fmt.Errorf("unknown role %q", cred.Role)
	}
	if err != nil {
		return auth.Credential{}, fmt.Errorf("create profile: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, display_name, email, role, enabled, profile_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		auth.NormalizeUsername(cred.Username), cred.PasswordHash, cred.DisplayName,
		cred.Email, cred.Role, cred.Enabled, cred.ProfileID,
	).Scan(&cred.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.Credential{}, auth.ErrUsernameTaken
		}
		return auth.Credential{}, fmt.Errorf("create user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return auth.Credential{}, err
	}
	return cred, nil
}

// CountByRole reports how many enabled accounts carry the role. Used by the
// bootstrap-teacher command for idempotence.
func (r *UserRepo) CountByRole(ctx context.Context, role auth.Role) (int64, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND enabled`

	var n int64
	if err := r.pool.QueryRow(ctx, query, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}
