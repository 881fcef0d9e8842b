package core

import (
	"net/http"
	"time"
)

const (
	DefaultSessionMaxAge       = 7 * 24 * time.Hour
	DefaultVerificationCodeTTL = 24 * time.Hour
	DefaultResetTokenTTL       = time.Hour
	DefaultCookieName          = "tokenJWT"
	DefaultIssuer              = "mern-authorization"
)

type SessionConfig struct {
	// MaxAge bounds both the signed token and the cookie carrying it.
	MaxAge time.Duration
	Issuer string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: DefaultSessionMaxAge,
		Issuer: DefaultIssuer,
	}
}

// CookieConfig defines the security baseline of the session cookie
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns an HTTP-only, same-site-strict cookie. Secure
// should be switched on in production.
func DefaultCookieConfig(maxAge time.Duration) CookieConfig {
	return CookieConfig{
		Name:     DefaultCookieName,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenConfig sets the lifetimes of emailed credentials.
type TokenConfig struct {
	VerificationCodeTTL time.Duration
	ResetTokenTTL       time.Duration
}

func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		VerificationCodeTTL: DefaultVerificationCodeTTL,
		ResetTokenTTL:       DefaultResetTokenTTL,
	}
}
