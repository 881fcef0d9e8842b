package core

import "time"

// User is the only persisted entity: identity, credential and the
// short-lived verification/reset material in one record.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // Never expose in JSON
	IsVerified   bool   `json:"isVerified"`

	VerificationToken          *string    `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`

	// ResetPasswordToken holds the SHA-256 hex digest of the token mailed
	// to the user, never the token itself.
	ResetPasswordToken     *string    `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	LastLogin time.Time `json:"lastLogin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetVerificationToken replaces any pending code and marks the user unverified.
func (u *User) SetVerificationToken(code string, expiresAt time.Time) {
	u.IsVerified = false
	u.VerificationToken = &code
	u.VerificationTokenExpiresAt = &expiresAt
}

// MarkVerified flips the flag and drops the code so it cannot be replayed.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
}

// SetResetToken supersedes any previous reset token.
func (u *User) SetResetToken(tokenHash string, expiresAt time.Time) {
	u.ResetPasswordToken = &tokenHash
	u.ResetPasswordExpiresAt = &expiresAt
}

func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpiresAt = nil
}

// VerificationValid reports whether code matches the pending, unexpired code.
func (u *User) VerificationValid(code string, now time.Time) bool {
	if u.VerificationToken == nil || u.VerificationTokenExpiresAt == nil {
		return false
	}
	return *u.VerificationToken == code && u.VerificationTokenExpiresAt.After(now)
}

// ResetValid reports whether tokenHash matches the pending, unexpired reset token.
func (u *User) ResetValid(tokenHash string, now time.Time) bool {
	if u.ResetPasswordToken == nil || u.ResetPasswordExpiresAt == nil {
		return false
	}
	return *u.ResetPasswordToken == tokenHash && u.ResetPasswordExpiresAt.After(now)
}

// Clone returns a deep copy so callers holding a cached or stored record
// cannot mutate it in place.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.VerificationToken != nil {
		v := *u.VerificationToken
		c.VerificationToken = &v
	}
	if u.VerificationTokenExpiresAt != nil {
		v := *u.VerificationTokenExpiresAt
		c.VerificationTokenExpiresAt = &v
	}
	if u.ResetPasswordToken != nil {
		v := *u.ResetPasswordToken
		c.ResetPasswordToken = &v
	}
	if u.ResetPasswordExpiresAt != nil {
		v := *u.ResetPasswordExpiresAt
		c.ResetPasswordExpiresAt = &v
	}
	return &c
}

// SignUpInput contains the data needed to register a new user
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailInput carries the emailed code. The JSON name matches what
// deployed web clients send.
type VerifyEmailInput struct {
	Email string `json:"email"`
	Code  string `json:"verificationToken"`
}

// AuthResult is returned by operations that start a session.
type AuthResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"-"` // Delivered as a cookie only
	ExpiresAt time.Time `json:"-"`
}
