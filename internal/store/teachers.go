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

type TeacherRepo struct {
	pool *pgxpool.Pool
}

func NewTeacherRepo(pool *pgxpool.Pool) *TeacherRepo {
	return &TeacherRepo{pool: pool}
}

func (r *TeacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	const query = `SELECT id, name, email, department_id FROM teachers ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teachers {
		ids, err := r.studentIDs(ctx, teachers[i].ID)
		if err != nil {
			return nil, err
		}
		teachers[i].StudentIDs = ids
	}
	return teachers, nil
}

func (r *TeacherRepo) Get(ctx context.Context, id int64) (model.Teacher, error) {
	const query = `SELECT id, name, email, department_id FROM teachers WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	t, err := scanTeacher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Teacher{}, ErrNotFound
		}
		return model.Teacher{}, fmt.Errorf("get teacher: %w", err)
	}

	t.StudentIDs, err = r.studentIDs(ctx, t.ID)
	if err != nil {
		return model.Teacher{}, err
	}
	return t, nil
}

func (r *TeacherRepo) Create(ctx context.Context, t model.Teacher) (model.Teacher, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Teacher{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO teachers (name, email, department_id) VALUES ($1, $2, $3) RETURNING id`,
		t.Name, t.Email, nullableID(t.DepartmentID),
	).Scan(&t.ID)
	if err != nil {
		return model.Teacher{}, fmt.Errorf("create teacher: %w", err)
	}

	if err := replaceTeacherStudents(ctx, tx, t.ID, t.StudentIDs); err != nil {
		return model.Teacher{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Teacher{}, err
	}
	return t, nil
}

func (r *TeacherRepo) Update(ctx context.Context, t model.Teacher) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE teachers SET name = $2, email = $3, department_id = $4 WHERE id = $1`,
		t.ID, t.Name, t.Email, nullableID(t.DepartmentID),
	)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := replaceTeacherStudents(ctx, tx, t.ID, t.StudentIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TeacherRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TeacherRepo) studentIDs(ctx context.Context, teacherID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM teacher_student WHERE teacher_id = $1 ORDER BY student_id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("teacher students: %w", err)
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

func replaceTeacherStudents(ctx context.Context, db DBTX, teacherID int64, studentIDs []int64) error {
	if _, err := db.Exec(ctx, `DELETE FROM teacher_student WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear teacher students: %w", err)
	}
	for _, studentID := range studentIDs {
		if _, err := db.Exec(ctx,
			`INSERT INTO teacher_student (teacher_id, student_id) VALUES ($1, $2)`,
			teacherID, studentID,
		); err != nil {
			return fmt.Errorf("assign student: %w", err)
		}
	}
	return nil
}

func scanTeacher(row pgx.Row) (model.Teacher, error) {
	var t model.Teacher
	var dept sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &dept); err != nil {
		return model.Teacher{}, err
	}
	if dept.Valid {
		t.DepartmentID = dept.Int64
	}
	return t, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
