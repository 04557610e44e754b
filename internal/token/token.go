package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "accessToken"
	defaultTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID  uuid.UUID `json:"uid"`
	IsStaff bool      `json:"staff"`
	jwt.RegisteredClaims
}

type Service struct {
	Secret []byte
	TTL    time.Duration
}

func NewService(secret []byte) *Service {
	return &Service{Secret: secret, TTL: defaultTTL}
}

func (s *Service) Issue(userID uuid.UUID, isStaff bool) (string, time.Time, error) {
	expires := time.Now().UTC().Add(s.TTL)
	claims := Claims{
		UserID:  userID,
		IsStaff: isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *Service) Parse(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func Cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Attach reads the access cookie when present and stores the identity on the
// echo context. It never rejects: anonymous requests stay anonymous.
func (s *Service) Attach(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(CookieName)
		if err == nil && ck.Value != "" {
			if claims, perr := s.Parse(ck.Value); perr == nil {
				c.Set("user_id", claims.UserID.String())
				c.Set("is_staff", claims.IsStaff)
			}
		}
		return next(c)
	}
}

func (s *Service) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("user_id").(string); !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		return next(c)
	}
}

func (s *Service) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		staff, ok := c.Get("is_staff").(bool)
		if !ok || !staff {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "staff only"})
		}
		return next(c)
	}
}

// UserID returns the authenticated user id from the context, if any.
func UserID(c echo.Context) (uuid.UUID, bool) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
