package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbook/campusbook/internal/model"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

func (r *StudentRepo) List(ctx context.Context) ([]model.Student, error) {
	const query = `SELECT id, name, roll, email, role FROM students ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Roll, &s.Email, &s.Role); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range students {
		ids, err := r.courseIDs(ctx, r.pool, students[i].ID)
		if err != nil {
			return nil, err
		}
		students[i].CourseIDs = ids
	}
	return students, nil
}

func (r *StudentRepo) Get(ctx context.Context, id int64) (model.Student, error) {
	const query = `SELECT id, name, roll, email, role FROM students WHERE id = $1`

	var s model.Student
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Roll, &s.Email, &s.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Student{}, ErrNotFound
		}
		return model.Student{}, fmt.Errorf("get student: %w", err)
	}

	s.CourseIDs, err = r.courseIDs(ctx, r.pool, s.ID)
	if err != nil {
		return model.Student{}, err
	}
	return s, nil
}

func (r *StudentRepo) Create(ctx context.Context, s model.Student) (model.Student, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Student{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO students (name, roll, email, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.Name, s.Roll, s.Email, s.Role,
	).Scan(&s.ID)
	if err != nil {
		return model.Student{}, fmt.Errorf("create student: %w", err)
	}

	if err := replaceStudentCourses(ctx, tx, s.ID, s.CourseIDs); err != nil {
		return model.Student{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Student{}, err
	}
	return s, nil
}

func (r *StudentRepo) Update(ctx context.Context, s model.Student) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE students SET name = $2, roll = $3, email = $4, role = $5 WHERE id = $1`,
		s.ID, s.Name, s.Roll, s.Email, s.Role,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := replaceStudentCourses(ctx, tx, s.ID, s.CourseIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *StudentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudentRepo) courseIDs(ctx context.Context, db DBTX, studentID int64) ([]int64, error) {
	rows, err := db.Query(ctx,
		`SELECT course_id FROM course_student WHERE student_id = $1 ORDER BY course_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("student courses: %w", err)
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

func replaceStudentCourses(ctx context.Context, db DBTX, studentID int64, courseIDs []int64) error {
	if _, err := db.Exec(ctx, `DELETE FROM course_student WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear student courses: %w", err)
	}
	for _, courseID := range courseIDs {
		if _, err := db.Exec(ctx,
			`INSERT INTO course_student (course_id, student_id) VALUES ($1, $2)`,
			courseID, studentID,
		); err != nil {
			return fmt.Errorf("enroll student: %w", err)
		}
	}
	return nil
}
