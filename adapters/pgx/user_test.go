package pgx

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "other constraint", err: &pgconn.PgError{Code: "23502"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := isUniqueViolation(test.err); got != test.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, test.want)
			}
		})
	}
}

// Requirement: the embedded schema enforces unique emails and reset tokens.
func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}

	raw, err := fs.ReadFile(migrations, files[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	sql := string(raw)
	for _, want := range []string{"-- +goose Up", "users_email_unique", "users_reset_token_unique", "WHERE reset_password_token IS NOT NULL"} {
		if !strings.Contains(sql, want) {
			t.Errorf("migration missing %q", want)
		}
	}
}
