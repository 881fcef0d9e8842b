package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, is_verified,
	verification_token, verification_token_expires_at,
	reset_password_token, reset_password_expires_at,
	last_login, created_at, updated_at`

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	id, err := a.ids.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate user id: %w", err)
	}

	query := `INSERT INTO public.users (` + userColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = a.pool.Exec(ctx, query,
		id, user.Email, user.Name, user.PasswordHash, user.IsVerified,
		user.VerificationToken, user.VerificationTokenExpiresAt,
		user.ResetPasswordToken, user.ResetPasswordExpiresAt,
		user.LastLogin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	return a.queryUser(ctx, q, id)
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE email = $1`
	return a.queryUser(ctx, q, email)
}

func (a *Adapter) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users
	      WHERE reset_password_token = $1 AND reset_password_expires_at > $2`
	return a.queryUser(ctx, q, tokenHash, now)
}

func (a *Adapter) VerifyUser(ctx context.Context, email, code string, now time.Time) (*core.User, error) {
	q := `UPDATE public.users SET
	          is_verified = TRUE,
	          verification_token = NULL, verification_token_expires_at = NULL,
	          updated_at = $3
	      WHERE email = $1 AND verification_token = $2 AND verification_token_expires_at > $3
	      RETURNING ` + userColumns
	return a.queryUser(ctx, q, email, code, now)
}

func (a *Adapter) SetVerificationToken(ctx context.Context, id, code string, expiresAt, now time.Time) error {
	q := `UPDATE public.users SET
	          verification_token = $2, verification_token_expires_at = $3, updated_at = $4
	      WHERE id = $1 AND NOT is_verified`
	return a.exec(ctx, q, id, code, expiresAt, now)
}

func (a *Adapter) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	q := `UPDATE public.users SET
	          reset_password_token = $2, reset_password_expires_at = $3, updated_at = $4
	      WHERE id = $1`
	return a.exec(ctx, q, id, tokenHash, expiresAt, now)
}

func (a *Adapter) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*core.User, error) {
	q := `UPDATE public.users SET
	          password_hash = $2,
	          reset_password_token = NULL, reset_password_expires_at = NULL,
	          updated_at = $3
	      WHERE reset_password_token = $1 AND reset_password_expires_at > $3
	      RETURNING ` + userColumns
	return a.queryUser(ctx, q, tokenHash, passwordHash, now)
}

func (a *Adapter) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	q := `UPDATE public.users SET last_login = $2, updated_at = $2 WHERE id = $1`
	return a.exec(ctx, q, id, at)
}

// exec runs a single-row update; no affected row means the condition failed.
func (a *Adapter) exec(ctx context.Context, query string, args ...any) error {
	tag, err := a.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (a *Adapter) queryUser(ctx context.Context, query string, args ...any) (*core.User, error) {
	user := &core.User{}
	err := a.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsVerified,
		&user.VerificationToken, &user.VerificationTokenExpiresAt,
		&user.ResetPasswordToken, &user.ResetPasswordExpiresAt,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
