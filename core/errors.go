package core

import "errors"

// Validation errors (client input)
var (
	ErrMissingFields = errors.New("please fill in all fields")     // 400
	ErrInvalidEmail  = errors.New("invalid email format")          // 400
	ErrWeakPassword  = errors.New("password does not meet policy") // 400
	ErrInvalidBody   = errors.New("invalid request body")          // 400
)

// User state errors
var (
	ErrUserExists       = errors.New("user already exists")      // conflict
	ErrAlreadyVerified  = errors.New("user is already verified") // conflict
	ErrUserNotFound     = errors.New("user not found")           // not found
	ErrEmailNotFound    = errors.New("email not found")          // not found
	ErrEmailNotVerified = errors.New("email not verified")       // forbidden state
	ErrUserNotVerified  = errors.New("user is not verified")     // forbidden state

	ErrInvalidCredentials       = errors.New("invalid credentials")                   // credentials
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token") // not found
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")        // not found
)

// Session errors
var (
	ErrMissingToken   = errors.New("missing session token") // 401
	ErrInvalidToken   = errors.New("invalid session token") // 401
	ErrSessionExpired = errors.New("session expired")       // 401
	ErrCacheNotFound  = errors.New("user not found in cache")
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired     = errors.New("storage adapter is required") // 500
	ErrNotifierRequired    = errors.New("notifier is required")        // 500
	ErrHTTPAdapterRequired = errors.New("http adapter is required")    // 500
	ErrSecretRequired      = errors.New("secret is required")          // 500
	ErrSecretTooShort      = errors.New("secret too short")            // 500
	ErrClientURLMissing    = errors.New("client url not configured")   // 500
)

// Kind classifies errors so the transport layer can pick a status without
// knowing every sentinel.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidCredentials
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// ClientError reports whether the caller can correct the failure.
func (k Kind) ClientError() bool {
	return k != KindInternal && k != KindUnauthorized
}

// KindOf classifies err, unwrapping as needed. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrInvalidBody):
		return KindValidation
	case errors.Is(err, ErrUserExists),
		errors.Is(err, ErrAlreadyVerified):
		return KindConflict
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEmailNotFound),
		errors.Is(err, ErrInvalidVerificationToken),
		errors.Is(err, ErrInvalidResetToken):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified),
		errors.Is(err, ErrUserNotVerified):
		return KindForbidden
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrSessionExpired):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
