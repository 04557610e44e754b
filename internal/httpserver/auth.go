package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sulthanfragrance/storefront/internal/guest"
	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/token"
)

type AuthHTTP struct {
	Auth    *service.AuthService
	Account *service.AccountService
	Cart    *service.CartService
	Tokens  *token.Service
}

func (h *AuthHTTP) SendOTP(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Auth.SendOTP(c.Request().Context(), req.Email, c.RealIP()); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "otp sent"})
}

// VerifyOTP logs the user in, sets the session cookie, and folds the guest
// cart into the user's cart so nothing in the basket is lost at login.
func (h *AuthHTTP) VerifyOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify_otp")

	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	user, err := h.Auth.VerifyOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return serviceError(c, err)
	}

	signed, expires, err := h.Tokens.Issue(user.ID, user.IsStaff)
	if err != nil {
		l.Error("issue token", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	c.SetCookie(token.Cookie(signed, expires))

	if gid := guest.ID(c); gid != "" {
		if err := h.Cart.AdoptGuestCart(ctx, user.ID, gid); err != nil {
			l.Warn("guest cart merge failed", "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"user": userJSON(user)})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(token.Cookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, echo.Map{"status": "logged out"})
}

func userJSON(u *models.User) echo.Map {
	return echo.Map{
		"id":       u.ID,
		"email":    u.Email,
		"name":     u.Name,
		"phone":    u.Phone,
		"is_staff": u.IsStaff,
	}
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}

	user, err := h.Account.Profile(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, userJSON(user))
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	user, err := h.Account.UpdateProfile(c.Request().Context(), userID, req.Name, req.Phone)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, userJSON(user))
}

type addressRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	District    string `json:"district"`
	Pincode     string `json:"pincode"`
	IsDefault   bool   `json:"is_default"`
}

func (r *addressRequest) input() service.AddressInput {
	return service.AddressInput{
		Name:        r.Name,
		Phone:       r.Phone,
		AddressLine: r.AddressLine,
		City:        r.City,
		District:    r.District,
		Pincode:     r.Pincode,
		IsDefault:   r.IsDefault,
	}
}

func addressJSON(a *models.Address) echo.Map {
	return echo.Map{
		"id":           a.ID,
		"name":         a.Name,
		"phone":        a.Phone,
		"address_line": a.AddressLine,
		"city":         a.City,
		"district":     a.District,
		"pincode":      a.Pincode,
		"is_default":   a.IsDefault,
	}
}

func (h *AuthHTTP) ListAddresses(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}

	addrs, err := h.Account.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	out := make([]echo.Map, 0, len(addrs))
	for i := range addrs {
		out = append(out, addressJSON(&addrs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"addresses": out})
}

func (h *AuthHTTP) AddAddress(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	addr, err := h.Account.AddAddress(c.Request().Context(), userID, req.input())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, addressJSON(addr))
}

func (h *AuthHTTP) UpdateAddress(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}
	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address id"})
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	addr, err := h.Account.UpdateAddress(c.Request().Context(), userID, addressID, req.input())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, addressJSON(addr))
}

func (h *AuthHTTP) DeleteAddress(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
	}
	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address id"})
	}

	if err := h.Account.DeleteAddress(c.Request().Context(), userID, addressID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
