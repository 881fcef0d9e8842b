package fiber

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

type handlers struct {
	auth   core.AuthHandler
	cookie core.CookieConfig
	log    logging.Logger
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// bindBody decodes the JSON body into out. An empty body binds as {} so the
// request fails field validation instead of decoding.
func bindBody(c fiber.Ctx, out any) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	return c.Bind().Body(out)
}

func (h *handlers) signUp(c fiber.Ctx) error {
	var input core.SignUpInput
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	result, err := h.auth.SignUp(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	setSessionCookie(c, h.cookie, result.Token, result.ExpiresAt)
	return c.Status(http.StatusCreated).JSON(core.MessageResponse{
		Success: true,
		Message: "User created successfully",
		User:    result.User,
	})
}

func (h *handlers) login(c fiber.Ctx) error {
	var input core.LoginInput
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	result, err := h.auth.Login(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	setSessionCookie(c, h.cookie, result.Token, result.ExpiresAt)
	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Logged in successfully",
		User:    result.User,
	})
}

// logout needs no session: clearing an absent cookie is harmless.
func (h *handlers) logout(c fiber.Ctx) error {
	clearSessionCookie(c, h.cookie)
	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (h *handlers) verifyEmail(c fiber.Ctx) error {
	var input core.VerifyEmailInput
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	user, err := h.auth.VerifyEmail(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Email verified successfully",
		User:    user,
	})
}

func (h *handlers) resendVerification(c fiber.Ctx) error {
	var input emailRequest
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	if err := h.auth.ResendVerification(c.Context(), input.Email); err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Verification email sent successfully",
	})
}

func (h *handlers) forgotPassword(c fiber.Ctx) error {
	var input emailRequest
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	if err := h.auth.ForgotPassword(c.Context(), input.Email); err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Password reset email sent successfully",
	})
}

func (h *handlers) resetPassword(c fiber.Ctx) error {
	var input resetPasswordRequest
	if err := bindBody(c, &input); err != nil {
		return writeError(c, h.log, core.ErrInvalidBody)
	}

	if err := h.auth.ResetPassword(c.Context(), c.Params("token"), input.Password); err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "Password reset successfully",
	})
}

func (h *handlers) checkAuth(c fiber.Ctx) error {
	userID, ok := UserID(c)
	if !ok {
		return writeError(c, h.log, core.ErrMissingToken)
	}

	user, err := h.auth.CheckAuth(c.Context(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(http.StatusOK).JSON(core.MessageResponse{
		Success: true,
		Message: "User authenticated",
		User:    user,
	})
}

// writeError maps err to its status and wire message. Internal errors are
// logged and replaced by a generic message.
func writeError(c fiber.Ctx, log logging.Logger, err error) error {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		log.Error(c.Context(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(core.ErrorResponse{
		Success: false,
		Message: messageFor(err),
	})
}

// mapErrorToStatus keeps the wire contract: anything the caller can fix is
// 400, a missing or bad session is 401, the rest is 500.
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	kind := core.KindOf(err)
	switch {
	case kind == core.KindUnauthorized:
		return http.StatusUnauthorized
	case kind.ClientError():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errorMessages = []struct {
	err     error
	message string
}{
	{core.ErrMissingFields, "Please fill in all fields"},
	{core.ErrInvalidEmail, "Invalid email"},
	{core.ErrWeakPassword, "Password must contain at least 8 characters, one uppercase, one lowercase and one number"},
	{core.ErrInvalidBody, "Invalid request body"},
	{core.ErrUserExists, "User already exists"},
	{core.ErrAlreadyVerified, "User is already verified"},
	{core.ErrUserNotFound, "User not found"},
	{core.ErrEmailNotFound, "Email not found"},
	{core.ErrEmailNotVerified, "Email not verified. Cannot Login."},
	{core.ErrUserNotVerified, "User is not verified"},
	{core.ErrInvalidCredentials, "Invalid credentials"},
	{core.ErrInvalidVerificationToken, "Invalid or expired verification token"},
	{core.ErrInvalidResetToken, "Invalid or expired token"},
	{core.ErrMissingToken, "Unauthorized or not logged in"},
	{core.ErrInvalidToken, "Unauthorized or invalid token"},
	{core.ErrSessionExpired, "Unauthorized or invalid token"},
	{core.ErrClientURLMissing, "Client URL not found"},
}

func messageFor(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "Internal server error"
}
