// Package store is the PostgreSQL persistence layer for credentials and
// entity records. Each repository is exposed through an interface so the
// HTTP layer can be exercised against in-memory fakes.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusbook/campusbook/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StudentStore is the student repository boundary.
type StudentStore interface {
	List(ctx context.Context) ([]model.Student, error)
	Get(ctx context.Context, id int64) (model.Student, error)
	Create(ctx context.Context, s model.Student) (model.Student, error)
	Update(ctx context.Context, s model.Student) error
	Delete(ctx context.Context, id int64) error
}

// TeacherStore is the teacher repository boundary.
type TeacherStore interface {
	List(ctx context.Context) ([]model.Teacher, error)
	Get(ctx context.Context, id int64) (model.Teacher, error)
	Create(ctx context.Context, t model.Teacher) (model.Teacher, error)
	Update(ctx context.Context, t model.Teacher) error
	Delete(ctx context.Context, id int64) error
}

// CourseStore is the course repository boundary.
type CourseStore interface {
	List(ctx context.Context) ([]model.Course, error)
	Get(ctx context.Context, id int64) (model.Course, error)
	Create(ctx context.Context, c model.Course) (model.Course, error)
	Update(ctx context.Context, c model.Course) error
	Delete(ctx context.Context, id int64) error
}

// DepartmentStore is the department repository boundary.
type DepartmentStore interface {
	List(ctx context.Context) ([]model.Department, error)
	Get(ctx context.Context, id int64) (model.Department, error)
	Create(ctx context.Context, d model.Department) (model.Department, error)
	Update(ctx context.Context, d model.Department) error
	Delete(ctx context.Context, id int64) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
