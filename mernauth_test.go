package mernauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/services"
)

const testSecret = "01234567890123456789012345678901"

// recordingHTTP captures what New hands to the HTTP adapter.
type recordingHTTP struct {
	handler core.AuthHandler
	opts    core.RouteOptions
	err     error
}

func (r *recordingHTTP) RegisterRoutes(h core.AuthHandler, opts core.RouteOptions) error {
	r.handler = h
	r.opts = opts
	return r.err
}

func validConfig() (Config, *services.FakeUserStorage, *recordingHTTP) {
	storage := services.NewFakeUserStorage()
	http := &recordingHTTP{}
	return Config{
		Secret:   testSecret,
		Storage:  storage,
		Notifier: services.NewFakeNotifier(),
		HTTP:     http,
	}, storage, http
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"missing secret", func(c *Config) { c.Secret = "" }, ErrSecretRequired},
		{"short secret", func(c *Config) { c.Secret = "short-secret" }, ErrSecretTooShort},
		{"missing storage", func(c *Config) { c.Storage = nil }, ErrStorageRequired},
		{"missing notifier", func(c *Config) { c.Notifier = nil }, ErrNotifierRequired},
		{"missing http adapter", func(c *Config) { c.HTTP = nil }, ErrHTTPAdapterRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, _ := validConfig()
			tt.modify(&cfg)

			_, err := New(cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewShouldReturnErrSecretTooShort(t *testing.T) {
	cfg, _, _ := validConfig()
	cfg.Secret = "short-secret"

	_, err := New(cfg)
	if !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort sentinel (errors.Is), got %v", err)
	}
	// Message should include the minimum length
	if !strings.Contains(err.Error(), "32") {
		t.Fatalf("expected error message to include minimum length, got %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg, _, http := validConfig()

	auth, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if auth.BasePath != "/api/auth" || http.opts.BasePath != "/api/auth" {
		t.Errorf("expected default base path, got %q / %q", auth.BasePath, http.opts.BasePath)
	}
	if len(http.opts.Endpoints) != 8 {
		t.Errorf("expected 8 endpoints, got %d", len(http.opts.Endpoints))
	}
	if http.opts.Cookie.Name != core.DefaultCookieName || !http.opts.Cookie.HTTPOnly {
		t.Errorf("unexpected cookie config: %+v", http.opts.Cookie)
	}
	if http.opts.Cookie.MaxAge != core.DefaultSessionMaxAge {
		t.Errorf("expected cookie max age %v, got %v", core.DefaultSessionMaxAge, http.opts.Cookie.MaxAge)
	}
	if http.handler != auth.Service {
		t.Error("expected the auth service to be registered as the handler")
	}
	if _, ok := auth.Storage.(*services.CachedUserStorage); !ok {
		t.Errorf("expected cached storage by default, got %T", auth.Storage)
	}
}

func TestNewShouldNotUseCacheWhenDisableCacheTrue(t *testing.T) {
	cfg, storage, _ := validConfig()
	cfg.DisableCache = true

	auth, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if auth.Storage != UserStorage(storage) {
		t.Fatalf("expected the raw storage, got %T", auth.Storage)
	}
}

// Requirement: the cookie never outlives the session token.
func TestNewCapsCookieMaxAge(t *testing.T) {
	cfg, _, http := validConfig()
	cfg.Session = &SessionConfig{MaxAge: time.Hour, Issuer: "test"}
	cookie := DefaultCookieConfig(48 * time.Hour)
	cfg.Cookie = &cookie

	auth, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if auth.Sessions.MaxAge() != time.Hour {
		t.Errorf("expected session max age 1h, got %v", auth.Sessions.MaxAge())
	}
	if http.opts.Cookie.MaxAge != time.Hour {
		t.Errorf("expected cookie capped at 1h, got %v", http.opts.Cookie.MaxAge)
	}
}

func TestNewRegistersExtraEndpoints(t *testing.T) {
	cfg, _, http := validConfig()
	cfg.Endpoints = []Endpoint{{
		Path:     "/send-new-verification",
		Method:   "POST",
		Metadata: core.EndpointMetadata{OperationID: core.OpResendVerification},
	}}

	if _, err := New(cfg); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(http.opts.Endpoints) != 9 {
		t.Fatalf("expected 9 endpoints, got %d", len(http.opts.Endpoints))
	}
}

func TestNewRejectsConflictingEndpoints(t *testing.T) {
	cfg, _, _ := validConfig()
	cfg.Endpoints = []Endpoint{{Path: "/login", Method: "POST"}}

	if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "conflict") {
		t.Fatalf("expected endpoint conflict, got %v", err)
	}
}

func TestNewPropagatesRouteErrors(t *testing.T) {
	cfg, _, http := validConfig()
	http.err = errors.New("boom")

	if _, err := New(cfg); err == nil || err.Error() != "boom" {
		t.Fatalf("expected route registration error, got %v", err)
	}
}

func TestNewWiresWorkingService(t *testing.T) {
	cfg, _, _ := validConfig()
	cfg.PasswordHasher = NewBcrypt(4)

	auth, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := auth.Service.SignUp(context.Background(), core.SignUpInput{
		Email: "ada@example.com", Password: "Secret123", Name: "Ada",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	userID, err := auth.Service.VerifySession(res.Token)
	if err != nil || userID != res.User.ID {
		t.Fatalf("expected session for %s, got %q (%v)", res.User.ID, userID, err)
	}
}
