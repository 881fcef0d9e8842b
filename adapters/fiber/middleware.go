package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

// localsUserID is where the verifier leaves the session's user ID.
const localsUserID = "userID"

// requireAuth validates the session cookie and stores the user ID in the
// request locals for downstream handlers.
func requireAuth(auth core.AuthHandler, cookieName string, log logging.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			return writeError(c, log, core.ErrMissingToken)
		}

		userID, err := auth.VerifySession(token)
		if err != nil {
			return writeError(c, log, err)
		}

		c.Locals(localsUserID, userID)
		return c.Next()
	}
}

// UserID returns the user ID set by the session verifier.
func UserID(c fiber.Ctx) (string, bool) {
	id, ok := c.Locals(localsUserID).(string)
	return id, ok && id != ""
}
