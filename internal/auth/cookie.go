package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const CookieName = "seva_token"

type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func (cc CookieConfig) Set(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.MaxAge / time.Second),
		Expires:  expires,
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (cc CookieConfig) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
