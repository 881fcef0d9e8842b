package mernauth

import (
	"fmt"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/cache"
	"github.com/Keshav-Madhav/mern-authorization/pkg/crypto"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
	"github.com/Keshav-Madhav/mern-authorization/services"
)

// interfaces
type (
	UserStorage = core.UserStorage
	Notifier    = core.Notifier
	Cache       = core.Cache

	HTTPAdapter = core.HTTPAdapter

	PasswordHandler = crypto.PasswordHandler
	Logger          = logging.Logger
)

// structs
type (
	SessionConfig = core.SessionConfig
	CookieConfig  = core.CookieConfig
	TokenConfig   = core.TokenConfig
	CacheConfig   = core.CacheConfig
)

type (
	User       = core.User
	Endpoint   = core.Endpoint
	CacheStats = core.CacheStats
)

const (
	defaultBasePath  = "/api/auth"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	NewBcrypt            = crypto.NewBcrypt
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
	DefaultCookieConfig  = core.DefaultCookieConfig
	DefaultTokenConfig   = core.DefaultTokenConfig
)

var (
	ErrUserExists         = core.ErrUserExists
	ErrUserNotFound       = core.ErrUserNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrEmailNotVerified   = core.ErrEmailNotVerified
)

var (
	ErrMissingToken   = core.ErrMissingToken
	ErrInvalidToken   = core.ErrInvalidToken
	ErrSessionExpired = core.ErrSessionExpired
)

var (
	ErrStorageRequired     = core.ErrStorageRequired
	ErrNotifierRequired    = core.ErrNotifierRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

type Config struct {
	// Secret signs session tokens.
	Secret   string
	Storage  UserStorage
	Notifier Notifier
	HTTP     HTTPAdapter

	// Cache fronts user lookups by ID. Nil means an in-memory cache unless
	// DisableCache is set.
	Cache        Cache
	DisableCache bool

	Logger         Logger
	PasswordHasher PasswordHandler

	Session *SessionConfig
	Cookie  *CookieConfig
	Tokens  *TokenConfig

	// ClientURL is the web app origin used in password reset links.
	ClientURL string
	BasePath  string

	// Endpoints are registered next to the built-in routes. Each must name
	// a built-in operation, e.g. to mount one under a second path.
	Endpoints []Endpoint
}

// Auth is a configured instance with its routes mounted.
type Auth struct {
	Service   *services.AuthService
	Sessions  *services.SessionManager
	Storage   UserStorage
	Endpoints []*Endpoint
	BasePath  string
}

func New(config Config) (*Auth, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}
	if config.Notifier == nil {
		return nil, ErrNotifierRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	log := config.Logger
	if log == nil {
		log = logging.Nop()
	}

	cacheAdapter := config.Cache
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = NewInMemoryCache(CacheConfig{})
	}

	storage := config.Storage
	if cacheAdapter != nil {
		storage = services.NewCachedUserStorage(storage, cacheAdapter, log)
	}

	sessionConfig := DefaultSessionConfig()
	if config.Session != nil {
		sessionConfig = *config.Session
	}

	cookieConfig := DefaultCookieConfig(sessionConfig.MaxAge)
	if config.Cookie != nil {
		cookieConfig = *config.Cookie
	}

	tokens := DefaultTokenConfig()
	if config.Tokens != nil {
		tokens = *config.Tokens
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = NewBcrypt()
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	registry := services.NewEndpointRegistry()
	if len(config.Endpoints) > 0 {
		if err := registry.Register(config.Endpoints); err != nil {
			return nil, err
		}
	}

	sessions := services.NewSessionManager([]byte(config.Secret), sessionConfig)
	// The cookie never outlives the token it carries.
	if cookieConfig.MaxAge <= 0 || cookieConfig.MaxAge > sessions.MaxAge() {
		cookieConfig.MaxAge = sessions.MaxAge()
	}

	svc := services.NewAuthService(services.AuthServiceConfig{
		Storage:        storage,
		PasswordHasher: passwordHasher,
		SessionManager: sessions,
		Notifier:       config.Notifier,
		Logger:         log,
		ClientURL:      config.ClientURL,
		Tokens:         tokens,
	})

	auth := &Auth{
		Service:   svc,
		Sessions:  sessions,
		Storage:   storage,
		Endpoints: registry.Endpoints(),
		BasePath:  basePath,
	}

	if err := config.HTTP.RegisterRoutes(svc, core.RouteOptions{
		BasePath:  basePath,
		Endpoints: auth.Endpoints,
		Cookie:    cookieConfig,
	}); err != nil {
		return nil, err
	}

	return auth, nil
}
