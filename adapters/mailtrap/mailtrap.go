// Package mailtrap sends the auth flow's transactional emails through the
// Mailtrap send API.
package mailtrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

const (
	DefaultEndpoint = "https://send.api.mailtrap.io/"
	DefaultTimeout  = 10 * time.Second

	categoryVerification  = "Email Verification"
	categoryPasswordReset = "Password Reset"
)

type Config struct {
	Token    string
	Endpoint string // base URL; "api/send" is appended
	Timeout  time.Duration

	SenderEmail string
	SenderName  string

	// WelcomeTemplateUUID selects the Mailtrap-hosted welcome template.
	WelcomeTemplateUUID string
	CompanyName         string
}

type Mailer struct {
	cfg    Config
	url    string
	client *http.Client
}

var _ core.Notifier = (*Mailer)(nil)

func New(cfg Config) *Mailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Mailer{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.Endpoint, "/") + "/api/send",
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// EmailRecipient represents an email recipient
type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailRequest is the send API payload. A request carries either HTML with
// a subject or a template UUID with its variables.
type EmailRequest struct {
	From              EmailRecipient    `json:"from"`
	To                []EmailRecipient  `json:"to"`
	Subject           string            `json:"subject,omitempty"`
	HTML              string            `json:"html,omitempty"`
	Category          string            `json:"category,omitempty"`
	TemplateUUID      string            `json:"template_uuid,omitempty"`
	TemplateVariables map[string]string `json:"template_variables,omitempty"`
}

func (m *Mailer) SendVerificationEmail(ctx context.Context, email, code string) error {
	html, err := render(verificationTemplate, struct{ Code string }{code})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	return m.send(ctx, EmailRequest{
		To:       []EmailRecipient{{Email: email}},
		Subject:  "Account Verification",
		HTML:     html,
		Category: categoryVerification,
	})
}

func (m *Mailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return m.send(ctx, EmailRequest{
		To:           []EmailRecipient{{Email: email}},
		TemplateUUID: m.cfg.WelcomeTemplateUUID,
		TemplateVariables: map[string]string{
			"company_info_name": m.cfg.CompanyName,
			"name":              name,
		},
	})
}

func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	html, err := render(passwordResetTemplate, struct{ URL string }{resetURL})
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}
	return m.send(ctx, EmailRequest{
		To:       []EmailRecipient{{Email: email}},
		Subject:  "Password Reset",
		HTML:     html,
		Category: categoryPasswordReset,
	})
}

func (m *Mailer) SendResetSuccessEmail(ctx context.Context, email string) error {
	html, err := render(resetSuccessTemplate, nil)
	if err != nil {
		return fmt.Errorf("failed to render reset success email: %w", err)
	}
	return m.send(ctx, EmailRequest{
		To:       []EmailRecipient{{Email: email}},
		Subject:  "Password Reset Successful",
		HTML:     html,
		Category: categoryPasswordReset,
	})
}

// send posts emailReq to the send API. Any non-2xx status is an error.
func (m *Mailer) send(ctx context.Context, emailReq EmailRequest) error {
	emailReq.From = EmailRecipient{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName}

	payload, err := json.Marshal(emailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mailtrap API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
