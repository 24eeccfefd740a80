package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbook/campusbook/internal/model"
)

type DepartmentRepo struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepo(pool *pgxpool.Pool) *DepartmentRepo {
	return &DepartmentRepo{pool: pool}
}

func (r *DepartmentRepo) List(ctx context.Context) ([]model.Department, error) {
	const query = `SELECT id, name FROM departments ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepo) Get(ctx context.Context, id int64) (model.Department, error) {
	const query = `SELECT id, name FROM departments WHERE id = $1`

	var d model.Department
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Department{}, ErrNotFound
		}
		return model.Department{}, fmt.Errorf("get department: %w", err)
	}
	return d, nil
}

func (r *DepartmentRepo) Create(ctx context.Context, d model.Department) (model.Department, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id`, d.Name,
	).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Department{}, ErrConflict
		}
		return model.Department{}, fmt.Errorf("create department: %w", err)
	}
	return d, nil
}

func (r *DepartmentRepo) Update(ctx context.Context, d model.Department) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE departments SET name = $2 WHERE id = $1`, d.ID, d.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DepartmentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
