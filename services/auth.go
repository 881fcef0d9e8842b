package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/crypto"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

type AuthService struct {
	db             core.UserStorage
	passwordHasher crypto.PasswordHandler
	sessionManager *SessionManager
	notifier       core.Notifier
	log            logging.Logger

	clientURL string
	tokens    core.TokenConfig
	now       func() time.Time
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

type AuthServiceConfig struct {
	Storage        core.UserStorage
	PasswordHasher crypto.PasswordHandler
	SessionManager *SessionManager
	Notifier       core.Notifier
	Logger         logging.Logger

	// ClientURL prefixes the password reset link. Forgot-password fails
	// with ErrClientURLMissing while it is empty.
	ClientURL string
	Tokens    core.TokenConfig
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.PasswordHasher == nil {
		cfg.PasswordHasher = crypto.NewBcrypt()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Tokens.VerificationCodeTTL <= 0 {
		cfg.Tokens.VerificationCodeTTL = core.DefaultVerificationCodeTTL
	}
	if cfg.Tokens.ResetTokenTTL <= 0 {
		cfg.Tokens.ResetTokenTTL = core.DefaultResetTokenTTL
	}
	return &AuthService{
		db:             cfg.Storage,
		passwordHasher: cfg.PasswordHasher,
		sessionManager: cfg.SessionManager,
		notifier:       cfg.Notifier,
		log:            cfg.Logger.With("component", "auth"),
		clientURL:      strings.TrimRight(cfg.ClientURL, "/"),
		tokens:         cfg.Tokens,
		now:            time.Now,
	}
}

// SignUp registers an unverified user, mails the verification code and
// starts a session.
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput) (*core.AuthResult, error) {
	email := core.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || input.Password == "" || name == "" {
		return nil, core.ErrMissingFields
	}

	// Step 1: friendly duplicate check; the store's unique index is the guard
	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, core.ErrUserExists
	}

	// Step 2: validate input
	if err := core.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := core.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	// Step 3: hash password and generate the verification code
	hashedPassword, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := crypto.GenerateNumericCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	// Step 4: persist
	now := s.now()
	user := &core.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.SetVerificationToken(code, now.Add(s.tokens.VerificationCodeTTL))

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return nil, core.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Step 5: session
	token, expiresAt, err := s.sessionManager.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Step 6: notify; the user exists now whether or not the mail goes out
	s.dispatch(ctx, "verification", user.ID, func(ctx context.Context) error {
		return s.notifier.SendVerificationEmail(ctx, user.Email, code)
	})

	return &core.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyEmail consumes the emailed code. A code is accepted at most once.
func (s *AuthService) VerifyEmail(ctx context.Context, input core.VerifyEmailInput) (*core.User, error) {
	email := core.NormalizeEmail(input.Email)
	code := strings.TrimSpace(input.Code)
	if email == "" || code == "" {
		return nil, core.ErrInvalidVerificationToken
	}

	user, err := s.db.VerifyUser(ctx, email, code, s.now())
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	s.dispatch(ctx, "welcome", user.ID, func(ctx context.Context) error {
		return s.notifier.SendWelcomeEmail(ctx, user.Email, user.Name)
	})

	return user, nil
}

// ResendVerification replaces the pending code with a fresh one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email, core.ErrUserNotFound)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return core.ErrAlreadyVerified
	}

	code, err := crypto.GenerateNumericCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := s.now()
	if err := s.db.SetVerificationToken(ctx, user.ID, code, now.Add(s.tokens.VerificationCodeTTL), now); err != nil {
		// The store only replaces the code of an unverified user.
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrAlreadyVerified
		}
		return fmt.Errorf("failed to update verification code: %w", err)
	}

	s.dispatch(ctx, "verification", user.ID, func(ctx context.Context) error {
		return s.notifier.SendVerificationEmail(ctx, user.Email, code)
	})
	return nil
}

// Login authenticates a verified user and starts a session.
func (s *AuthService) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, core.ErrMissingFields
	}

	// Step 1: find the user
	user, err := s.findByEmail(ctx, input.Email, core.ErrEmailNotFound)
	if err != nil {
		return nil, err
	}

	// Step 2: verify the password
	valid, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, core.ErrInvalidCredentials
	}

	// Step 3: only verified users may log in
	if !user.IsVerified {
		return nil, core.ErrEmailNotVerified
	}

	// Step 4: session
	token, expiresAt, err := s.sessionManager.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	now := s.now()
	if err := s.db.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = now
	user.UpdatedAt = now

	return &core.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword stores a fresh reset token, superseding any earlier one,
// and mails the reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email, core.ErrUserNotFound)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return core.ErrUserNotVerified
	}
	if s.clientURL == "" {
		return core.ErrClientURLMissing
	}

	pair, err := crypto.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	if err := s.db.SetResetToken(ctx, user.ID, pair.Hash, now.Add(s.tokens.ResetTokenTTL), now); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := s.clientURL + "/reset-password/" + pair.Token
	s.dispatch(ctx, "password reset", user.ID, func(ctx context.Context) error {
		return s.notifier.SendPasswordResetEmail(ctx, user.Email, resetURL)
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return core.ErrMissingFields
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.ErrInvalidResetToken
	}

	tokenHash := crypto.HashToken(token)
	now := s.now()
	if _, err := s.db.GetUserByResetToken(ctx, tokenHash, now); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find user by reset token: %w", err)
	}

	if err := core.ValidatePassword(password); err != nil {
		return err
	}

	hashedPassword, err := s.passwordHasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// The token is checked again as part of the write, so it is used once
	// even when two resets race.
	user, err := s.db.ConsumeResetToken(ctx, tokenHash, hashedPassword, now)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrInvalidResetToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.dispatch(ctx, "reset success", user.ID, func(ctx context.Context) error {
		return s.notifier.SendResetSuccessEmail(ctx, user.Email)
	})
	return nil
}

// CheckAuth loads the user behind an already verified session.
func (s *AuthService) CheckAuth(ctx context.Context, userID string) (*core.User, error) {
	if userID == "" {
		return nil, core.ErrUserNotFound
	}
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) VerifySession(token string) (string, error) {
	return s.sessionManager.Verify(token)
}

func (s *AuthService) findByEmail(ctx context.Context, email string, notFound error) (*core.User, error) {
	email = core.NormalizeEmail(email)
	if email == "" {
		return nil, notFound
	}
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// dispatch runs a notification after the state change it reports has been
// committed. Failures are logged and never surface to the caller.
func (s *AuthService) dispatch(ctx context.Context, kind, userID string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	if err := send(ctx); err != nil {
		s.log.Error(ctx, "failed to send email", "email", kind, "userID", userID, "error", err)
		return
	}
	s.log.Debug(ctx, "email sent", "email", kind, "userID", userID)
}
