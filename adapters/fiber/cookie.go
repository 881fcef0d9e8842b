package fiber

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

func sameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return fiber.CookieSameSiteLaxMode
	case http.SameSiteNoneMode:
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteStrictMode
	}
}

func setSessionCookie(c fiber.Ctx, cfg core.CookieConfig, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge / time.Second),
		Expires:  expiresAt,
		Secure:   cfg.Secure,
		HTTPOnly: cfg.HTTPOnly,
		SameSite: sameSite(cfg.SameSite),
	})
}

// clearSessionCookie overwrites the cookie with an expired one carrying the
// same attributes, so the browser drops it.
func clearSessionCookie(c fiber.Ctx, cfg core.CookieConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: cfg.HTTPOnly,
		SameSite: sameSite(cfg.SameSite),
	})
}
