package guest

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "guest_id"
	cookieAge  = 365 * 24 * time.Hour
)

// Middleware guarantees every request carries a guest id. An invalid or
// missing cookie is replaced with a fresh uuid, re-issued for a year.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := ""
		if ck, err := c.Cookie(CookieName); err == nil {
			if _, perr := uuid.Parse(ck.Value); perr == nil {
				id = ck.Value
			}
		}

		if id == "" {
			id = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(cookieAge),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set("guest_id", id)
		return next(c)
	}
}

// ID returns the request's guest id.
func ID(c echo.Context) string {
	if s, ok := c.Get("guest_id").(string); ok {
		return s
	}
	return ""
}
