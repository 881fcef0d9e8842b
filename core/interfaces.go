package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// NOTIFICATION PORT
// ============================================

// Notifier delivers the transactional emails of the auth flow.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, code string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendPasswordResetEmail(ctx context.Context, email, resetURL string) error
	SendResetSuccessEmail(ctx context.Context, email string) error
}

// ============================================
// CACHE PORT
// ============================================

// Cache holds user records keyed by user ID.
type Cache interface {
	Get(ctx context.Context, key string) (*User, error)
	Set(ctx context.Context, key string, user *User) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters
type AuthHandler interface {
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	VerifyEmail(ctx context.Context, input VerifyEmailInput) (*User, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	CheckAuth(ctx context.Context, userID string) (*User, error)

	// VerifySession returns the user ID carried by a session token.
	VerifySession(token string) (string, error)
}

// ============================================
// HTTP PORT
// ============================================

// RouteOptions is what an HTTP adapter needs to mount the auth endpoints.
type RouteOptions struct {
	BasePath  string
	Endpoints []*Endpoint
	Cookie    CookieConfig
}

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, opts RouteOptions) error
}
