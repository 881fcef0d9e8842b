package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

// Claims is the payload of a session token. The user ID travels as "id" so
// the web client can read it without knowing the registered claim names.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed bearer tokens carried in the
// session cookie. There is no server-side session state: a token is valid
// until it expires.
type SessionManager struct {
	secret []byte
	config core.SessionConfig
	now    func() time.Time
}

func NewSessionManager(secret []byte, config core.SessionConfig) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionMaxAge
	}
	if config.Issuer == "" {
		config.Issuer = core.DefaultIssuer
	}
	return &SessionManager{secret: secret, config: config, now: time.Now}
}

func (sm *SessionManager) MaxAge() time.Duration {
	return sm.config.MaxAge
}

// Issue signs a token for userID that expires after the configured max age.
func (sm *SessionManager) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, core.ErrUserNotFound
	}

	now := sm.now()
	expiresAt := now.Add(sm.config.MaxAge)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    sm.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify returns the user ID carried by token.
func (sm *SessionManager) Verify(token string) (string, error) {
	if token == "" {
		return "", core.ErrMissingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sm.config.Issuer),
		jwt.WithTimeFunc(sm.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return sm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", core.ErrSessionExpired
		}
		return "", core.ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", core.ErrInvalidToken
	}
	return claims.UserID, nil
}
