package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	mernauth "github.com/Keshav-Madhav/mern-authorization"
	asynqadapter "github.com/Keshav-Madhav/mern-authorization/adapters/asynq"
	fiberadapter "github.com/Keshav-Madhav/mern-authorization/adapters/fiber"
	"github.com/Keshav-Madhav/mern-authorization/adapters/mailtrap"
	mongoadapter "github.com/Keshav-Madhav/mern-authorization/adapters/mongo"
	pgxadapter "github.com/Keshav-Madhav/mern-authorization/adapters/pgx"
	"github.com/Keshav-Madhav/mern-authorization/config"
	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/cache"
	"github.com/Keshav-Madhav/mern-authorization/pkg/crypto"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error(closeCtx, "failed to close store", "error", err)
		}
	}()

	cacheConfig := core.CacheConfig{TTL: cfg.CacheTTL, MaxSize: cfg.CacheMaxSize}
	var userCache core.Cache = cache.NewInMemoryCache(cacheConfig)

	var notifier core.Notifier = mailtrap.New(mailtrap.Config{
		Token:               cfg.MailtrapToken,
		Endpoint:            cfg.MailtrapEndpoint,
		Timeout:             cfg.MailTimeout,
		SenderEmail:         cfg.MailSenderEmail,
		SenderName:          cfg.MailSenderName,
		WelcomeTemplateUUID: cfg.MailWelcomeTemplateUUID,
		CompanyName:         cfg.MailCompanyName,
	})

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCacheFromURL(cfg.RedisURL, cacheConfig)
		if err != nil {
			return fmt.Errorf("failed to connect redis cache: %w", err)
		}
		defer redisCache.Close()
		userCache = redisCache

		worker, err := asynqadapter.NewWorker(cfg.RedisURL, notifier, log)
		if err != nil {
			return fmt.Errorf("failed to create mail worker: %w", err)
		}
		if err := worker.Start(); err != nil {
			_ = worker.Shutdown()
			return err
		}
		defer func() {
			if err := worker.Shutdown(); err != nil {
				log.Error(context.Background(), "failed to stop mail worker", "error", err)
			}
		}()
		notifier = worker.Outbox()
		log.Info(ctx, "mail outbox enabled", "queue", asynqadapter.Queue)
	}

	app := fiber.New(fiber.Config{AppName: "mern-authorization"})
	app.Use(recoverer.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))
	if cfg.ClientURL != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.ClientURL},
			AllowCredentials: true,
		}))
	}

	cookie := core.DefaultCookieConfig(cfg.SessionMaxAge)
	cookie.Secure = cfg.IsProduction()

	_, err = mernauth.New(mernauth.Config{
		Secret:         cfg.JWTSecret,
		Storage:        store,
		Notifier:       notifier,
		HTTP:           fiberadapter.New(app, fiberadapter.WithLogger(log)),
		Cache:          userCache,
		Logger:         log,
		PasswordHasher: crypto.NewPasswordHandler(cfg.PasswordHasher, cfg.BcryptCost),
		Session:        &core.SessionConfig{MaxAge: cfg.SessionMaxAge, Issuer: core.DefaultIssuer},
		Cookie:         &cookie,
		ClientURL:      cfg.ClientURL,
	})
	if err != nil {
		return fmt.Errorf("could not create auth instance: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "port", cfg.Port, "env", cfg.AppEnv)
		listenErr <- app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app.Listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// openStore picks the user store from the DATABASE_URL scheme.
func openStore(ctx context.Context, cfg *config.Config) (core.StorageCloser, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	scheme, _, _ := strings.Cut(cfg.DatabaseURL, "://")
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		store, err := mongoadapter.Connect(connectCtx, cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mongo: %w", err)
		}
		return store, nil
	case "postgres", "postgresql":
		store, err := pgxadapter.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme %q", scheme)
	}
}
