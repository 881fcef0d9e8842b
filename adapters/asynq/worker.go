package asynq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

// Worker consumes the mail queue and hands each email to a direct notifier.
// A failed send is retried by asynq with backoff up to the task's MaxRetry.
type Worker struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	log    logging.Logger
}

// NewWorker connects to the redis at redisURL. The returned worker also
// owns the client used by Outbox().
func NewWorker(redisURL string, notifier core.Notifier, log logging.Logger) (*Worker, error) {
	if notifier == nil {
		return nil, core.ErrNotifierRequired
	}
	if log == nil {
		log = logging.Nop()
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	log = log.With("component", "mail-worker")
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			Queue: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Warn(ctx, "email delivery failed", "type", task.Type(), "retry", retried, "maxRetry", maxRetry, "error", err)
		}),
	})

	return &Worker{
		client: asynq.NewClient(opt),
		server: server,
		mux:    newMux(notifier, log),
		log:    log,
	}, nil
}

func (w *Worker) Outbox() *Outbox {
	return NewOutbox(w.client)
}

// Start begins processing in the background and returns at once. The
// server installs no signal handlers; Shutdown stops it.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start mail worker: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() error {
	w.server.Shutdown()
	return w.client.Close()
}

func newMux(notifier core.Notifier, log logging.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationEmail, handle(log, func(ctx context.Context, p emailPayload) error {
		return notifier.SendVerificationEmail(ctx, p.Email, p.Code)
	}))
	mux.HandleFunc(TypeWelcomeEmail, handle(log, func(ctx context.Context, p emailPayload) error {
		return notifier.SendWelcomeEmail(ctx, p.Email, p.Name)
	}))
	mux.HandleFunc(TypePasswordReset, handle(log, func(ctx context.Context, p emailPayload) error {
		return notifier.SendPasswordResetEmail(ctx, p.Email, p.ResetURL)
	}))
	mux.HandleFunc(TypeResetSuccess, handle(log, func(ctx context.Context, p emailPayload) error {
		return notifier.SendResetSuccessEmail(ctx, p.Email)
	}))
	return mux
}

// handle decodes the payload before calling send. Undecodable tasks are not
// retried.
func handle(log logging.Logger, send func(context.Context, emailPayload) error) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p emailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
		}
		if p.Email == "" {
			return fmt.Errorf("%s payload has no recipient: %w", task.Type(), asynq.SkipRetry)
		}

		if err := send(ctx, p); err != nil {
			return err
		}
		log.Debug(ctx, "email delivered", "type", task.Type())
		return nil
	}
}
