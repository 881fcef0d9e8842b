package core

import (
	"context"
	"time"
)

// UserStorage is the persistence port for user records.
//
// Lookups that find nothing, or find a record whose token has expired
// (expiry not strictly after now), return ErrUserNotFound. CreateUser
// returns ErrUserExists when the store's unique email constraint rejects
// the insert; that constraint, not any pre-check, is what keeps emails unique.
//
// Records are never written back whole. Each update sets only the fields
// it names, guarded by its condition in the same statement, and reports
// ErrUserNotFound when no record meets the condition. Concurrent requests
// on one user therefore cannot undo each other's writes. Every update also
// sets the updated-at timestamp to now.
type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error

	// Query methods
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// VerifyUser marks the user holding the unexpired code verified, clears
	// the code and returns the updated record. A code is consumed once.
	VerifyUser(ctx context.Context, email, code string, now time.Time) (*User, error)

	// SetVerificationToken replaces the pending code of a user that is
	// still unverified.
	SetVerificationToken(ctx context.Context, id, code string, expiresAt, now time.Time) error

	// SetResetToken stores a reset token digest, superseding any earlier one.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error

	// ConsumeResetToken replaces the password of the user holding the
	// unexpired token, clears the token and returns the updated record.
	// A token is consumed once.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*User, error)

	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// StorageCloser is implemented by adapters holding a connection pool.
type StorageCloser interface {
	UserStorage
	Close(ctx context.Context) error
}
