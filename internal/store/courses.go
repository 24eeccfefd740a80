package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbook/campusbook/internal/model"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) List(ctx context.Context) ([]model.Course, error) {
	const query = `SELECT id, title, code, department_id FROM courses ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range courses {
		ids, err := r.studentIDs(ctx, courses[i].ID)
		if err != nil {
			return nil, err
		}
		courses[i].StudentIDs = ids
	}
	return courses, nil
}

func (r *CourseRepo) Get(ctx context.Context, id int64) (model.Course, error) {
	const query = `SELECT id, title, code, department_id FROM courses WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, ErrNotFound
		}
		return model.Course{}, fmt.Errorf("get course: %w", err)
	}

	c.StudentIDs, err = r.studentIDs(ctx, c.ID)
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

func (r *CourseRepo) Create(ctx context.Context, c model.Course) (model.Course, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, code, department_id) VALUES ($1, $2, $3) RETURNING id`,
		c.Title, c.Code, nullableID(c.DepartmentID),
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Course{}, ErrConflict
		}
		return model.Course{}, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

func (r *CourseRepo) Update(ctx context.Context, c model.Course) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE courses SET title = $2, code = $3, department_id = $4 WHERE id = $1`,
		c.ID, c.Title, c.Code, nullableID(c.DepartmentID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CourseRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CourseRepo) studentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM course_student WHERE course_id = $1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("course students: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCourse(row pgx.Row) (model.Course, error) {
	var c model.Course
	var dept sql.NullInt64
	if err := row.Scan(&c.ID, &c.Title, &c.Code, &dept); err != nil {
		return model.Course{}, err
	}
	if dept.Valid {
		c.DepartmentID = dept.Int64
	}
	return c, nil
}
