package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

const HealthPath = "/healthz"

type Adapter struct {
	app *fiber.App
	log logging.Logger
}

var _ core.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithLogger(log logging.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

func New(app *fiber.App, opts ...Option) *Adapter {
	a := &Adapter{app: app, log: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes mounts every endpoint under opts.BasePath and the health
// check at the root. Protected endpoints run behind the session verifier.
func (a *Adapter) RegisterRoutes(handler core.AuthHandler, opts core.RouteOptions) error {
	if opts.Cookie.Name == "" {
		opts.Cookie = core.DefaultCookieConfig(opts.Cookie.MaxAge)
	}

	h := &handlers{auth: handler, cookie: opts.Cookie, log: a.log}
	byOperation := map[string]fiber.Handler{
		core.OpSignUp:             h.signUp,
		core.OpLogin:              h.login,
		core.OpLogout:             h.logout,
		core.OpVerifyEmail:        h.verifyEmail,
		core.OpResendVerification: h.resendVerification,
		core.OpForgotPassword:     h.forgotPassword,
		core.OpResetPassword:      h.resetPassword,
		core.OpCheckAuth:          h.checkAuth,
	}

	a.app.Get(HealthPath, health)

	api := a.app.Group(opts.BasePath)
	for _, ep := range opts.Endpoints {
		route, ok := byOperation[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for operation %q (%s %s)", ep.Metadata.OperationID, ep.Method, ep.Path)
		}

		methods := []string{ep.Method}
		if ep.Protected {
			api.Add(methods, ep.Path, requireAuth(handler, opts.Cookie.Name, a.log), route)
		} else {
			api.Add(methods, ep.Path, route)
		}
	}

	return nil
}

func health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
