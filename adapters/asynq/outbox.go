// Package asynq queues transactional emails in redis so delivery survives
// provider outages and process restarts.
package asynq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

const (
	Queue           = "mail"
	DefaultMaxRetry = 5

	TypeVerificationEmail = "email:verification"
	TypeWelcomeEmail      = "email:welcome"
	TypePasswordReset     = "email:password_reset"
	TypeResetSuccess      = "email:reset_success"
)

// emailPayload carries whichever fields the task type needs.
type emailPayload struct {
	Email    string `json:"email"`
	Code     string `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	ResetURL string `json:"resetUrl,omitempty"`
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Outbox implements core.Notifier by enqueueing one task per email. A nil
// error means the email is durably queued, not that it was delivered.
type Outbox struct {
	client   enqueuer
	maxRetry int
}

var _ core.Notifier = (*Outbox)(nil)

func NewOutbox(client *asynq.Client) *Outbox {
	return &Outbox{client: client, maxRetry: DefaultMaxRetry}
}

func (o *Outbox) SendVerificationEmail(ctx context.Context, email, code string) error {
	return o.enqueue(ctx, TypeVerificationEmail, emailPayload{Email: email, Code: code})
}

func (o *Outbox) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return o.enqueue(ctx, TypeWelcomeEmail, emailPayload{Email: email, Name: name})
}

func (o *Outbox) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	return o.enqueue(ctx, TypePasswordReset, emailPayload{Email: email, ResetURL: resetURL})
}

func (o *Outbox) SendResetSuccessEmail(ctx context.Context, email string) error {
	return o.enqueue(ctx, TypeResetSuccess, emailPayload{Email: email})
}

func (o *Outbox) enqueue(ctx context.Context, taskType string, payload emailPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	task := asynq.NewTask(taskType, body, asynq.Queue(Queue))
	if _, err := o.client.EnqueueContext(ctx, task, asynq.MaxRetry(o.maxRetry)); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}
