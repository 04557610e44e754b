package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/guest"
	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/token"
)

// serviceError maps the service error taxonomy onto HTTP statuses. Anything
// unrecognized is logged and hidden behind a generic 500.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrVerification):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment verification failed"})
	case errors.Is(err, service.ErrGateway):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable, retry"})
	case errors.Is(err, service.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
	default:
		logging.FromContext(c.Request().Context()).Error("internal error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// identityFrom prefers the authenticated user, falling back to the guest
// cookie.
func identityFrom(c echo.Context) service.Identity {
	if userID, ok := token.UserID(c); ok {
		return service.UserIdentity(userID)
	}
	return service.GuestIdentity(guest.ID(c))
}
