package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	return NewSessionManager(testSecret, core.SessionConfig{MaxAge: 24 * time.Hour, Issuer: "test"})
}

// Requirement: Issue signs a token whose expiry is fixed by the session max age.
func TestSessionManager_Issue(t *testing.T) {
	manager := newTestSessionManager(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	token, expiresAt, err := manager.Issue("user123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}
	if want := now.Add(24 * time.Hour); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a compact JWS", token)
	}
}

func TestSessionManager_IssueRejectsEmptyUserID(t *testing.T) {
	manager := newTestSessionManager(t)
	if _, _, err := manager.Issue(""); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("Issue(\"\") error = %v, want ErrUserNotFound", err)
	}
}

// Requirement: two tokens for the same user are distinct.
func TestSessionManager_IssueUniqueTokens(t *testing.T) {
	manager := newTestSessionManager(t)

	a, _, _ := manager.Issue("user123")
	b, _, _ := manager.Issue("user123")
	if a == b {
		t.Error("Issue() returned the same token twice")
	}
}

// Requirement: Verify returns the user ID of a valid token and classifies failures.
func TestSessionManager_Verify(t *testing.T) {
	manager := newTestSessionManager(t)
	valid, _, err := manager.Issue("user123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherSecret := NewSessionManager([]byte("ffffffffffffffffffffffffffffffff"), core.SessionConfig{MaxAge: time.Hour, Issuer: "test"})
	forged, _, _ := otherSecret.Issue("user123")

	otherIssuer := NewSessionManager(testSecret, core.SessionConfig{MaxAge: time.Hour, Issuer: "someone-else"})
	wrongIssuer, _, _ := otherIssuer.Issue("user123")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           "user123",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "test"},
	}).SignedString(testSecret)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{name: "valid token", token: valid, wantID: "user123"},
		{name: "empty token", token: "", wantErr: core.ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", wantErr: core.ErrInvalidToken},
		{name: "wrong secret", token: forged, wantErr: core.ErrInvalidToken},
		{name: "wrong issuer", token: wrongIssuer, wantErr: core.ErrInvalidToken},
		{name: "alg none", token: none, wantErr: core.ErrInvalidToken},
		{name: "missing expiry", token: noExpiry, wantErr: core.ErrInvalidToken},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, err := manager.Verify(test.token)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Verify() error = %v, want %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if id != test.wantID {
				t.Errorf("Verify() = %q, want %q", id, test.wantID)
			}
		})
	}
}

// Requirement: an expired token is reported as ErrSessionExpired.
func TestSessionManager_VerifyExpired(t *testing.T) {
	manager := newTestSessionManager(t)
	now := time.Now()
	manager.now = func() time.Time { return now }

	token, _, err := manager.Issue("user123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	now = now.Add(25 * time.Hour)
	if _, err := manager.Verify(token); !errors.Is(err, core.ErrSessionExpired) {
		t.Fatalf("Verify() error = %v, want ErrSessionExpired", err)
	}
}

func TestNewSessionManager_Defaults(t *testing.T) {
	manager := NewSessionManager(testSecret, core.SessionConfig{})
	if manager.MaxAge() != core.DefaultSessionMaxAge {
		t.Errorf("MaxAge() = %v, want %v", manager.MaxAge(), core.DefaultSessionMaxAge)
	}
	if manager.config.Issuer != core.DefaultIssuer {
		t.Errorf("Issuer = %q, want %q", manager.config.Issuer, core.DefaultIssuer)
	}
}
