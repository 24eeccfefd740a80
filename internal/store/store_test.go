package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique_violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped_unique_violation", err: fmt.Errorf("create user: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "other_pg_error", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "plain_error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
