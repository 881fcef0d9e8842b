// Package config loads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	// Server
	Port   string
	AppEnv string

	// Storage
	DatabaseURL  string
	DatabaseName string // mongo only

	// Session
	JWTSecret     string
	SessionMaxAge time.Duration

	// Mail
	MailtrapToken           string
	MailtrapEndpoint        string
	MailSenderEmail         string
	MailSenderName          string
	MailWelcomeTemplateUUID string
	MailCompanyName         string
	MailTimeout             time.Duration

	// ClientURL prefixes password reset links. Empty disables forgot-password.
	ClientURL string

	// RedisURL enables the shared user cache and the mail outbox.
	RedisURL string

	// Credentials and cache
	PasswordHasher string
	BcryptCost     int
	CacheTTL       time.Duration
	CacheMaxSize   int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env and .env.local when present, then the process environment.
// Variables already set in the environment win over the files.
func Load() (*Config, error) {
	loadEnvFiles()

	c := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DatabaseName: getEnv("DATABASE_NAME", "mern_auth"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionMaxAge: getEnvAsDuration("SESSION_MAX_AGE", 7*24*time.Hour),

		MailtrapToken:           getEnv("MAILTRAP_TOKEN", ""),
		MailtrapEndpoint:        getEnv("MAILTRAP_ENDPOINT", "https://send.api.mailtrap.io/"),
		MailSenderEmail:         getEnv("MAIL_SENDER_EMAIL", "hello@demomailtrap.com"),
		MailSenderName:          getEnv("MAIL_SENDER_NAME", "Keshav"),
		MailWelcomeTemplateUUID: getEnv("MAIL_WELCOME_TEMPLATE_UUID", "51365fcf-284a-4b6a-9fc2-12e98c6efd67"),
		MailCompanyName:         getEnv("MAIL_COMPANY_NAME", "Keshav"),
		MailTimeout:             getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),

		ClientURL: strings.TrimRight(getEnv("CLIENT_URL", ""), "/"),
		RedisURL:  getEnv("REDIS_URL", ""),

		PasswordHasher: getEnv("PASSWORD_HASHER", "bcrypt"),
		BcryptCost:     getEnvAsInt("BCRYPT_COST", 10),
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxSize:   getEnvAsInt("CACHE_MAX_SIZE", 500),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadEnvFiles() {
	// godotenv.Load never overrides variables that are already set, so the
	// first file to define a key wins.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.MailtrapToken == "" {
		errs = append(errs, errors.New("MAILTRAP_TOKEN is required"))
	}
	if c.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be positive"))
	}
	switch strings.ToLower(c.PasswordHasher) {
	case "bcrypt", "argon2", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER %q is not supported", c.PasswordHasher))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("168h") or plain seconds ("3600").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
