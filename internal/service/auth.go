package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/hash"
	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/models"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

const otpTTL = 10 * time.Minute

// OTPSender delivers the one-time code; mail transport lives outside this
// service.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// OTPRateLimiter throttles send requests per email and client IP.
type OTPRateLimiter interface {
	Allow(ctx context.Context, email, ip string) (bool, time.Duration, error)
}

type AuthService struct {
	Repo    *repo.GormRepo
	Sender  OTPSender
	Limiter OTPRateLimiter
}

// SendOTP issues a fresh 4-digit code for the email, invalidating earlier
// ones. Requests inside the rate-limit window return ErrRateLimited with the
// remaining wait wrapped into the message.
func (s *AuthService) SendOTP(ctx context.Context, email, clientIP string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", ErrValidation)
	}

	if s.Limiter != nil {
		ok, wait, err := s.Limiter.Allow(ctx, email, clientIP)
		if err != nil {
			// a cache outage must not block logins
			logging.FromContext(ctx).Warn("otp rate limiter unavailable", "error", err)
		} else if !ok {
			return fmt.Errorf("retry in %ds: %w", int(wait.Seconds()), ErrRateLimited)
		}
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hashed, err := hash.HashOTP(code)
	if err != nil {
		return err
	}

	otp := &models.OTP{
		Email:     email,
		OTPHash:   hashed,
		ExpiresAt: time.Now().UTC().Add(otpTTL),
		IPAddress: clientIP,
	}
	if err := s.Repo.CreateOTP(ctx, otp); err != nil {
		return err
	}

	return s.Sender.SendOTP(ctx, email, code)
}

// VerifyOTP consumes the latest outstanding code and returns the user,
// creating one on first login.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return nil, fmt.Errorf("email and otp are required: %w", ErrValidation)
	}

	otp, err := s.Repo.LatestActiveOTP(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid or expired otp: %w", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	if !hash.CheckOTP(otp.OTPHash, code) {
		return nil, fmt.Errorf("invalid or expired otp: %w", ErrValidation)
	}
	if err := s.Repo.MarkOTPUsed(ctx, otp.ID); err != nil {
		return nil, err
	}

	user, err := s.Repo.GetOrCreateUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account disabled: %w", ErrValidation)
	}
	return user, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// LogSender is the development OTP delivery: codes go to the log instead of
// an inbox.
type LogSender struct{}

func (LogSender) SendOTP(ctx context.Context, email, code string) error {
	logging.FromContext(ctx).Info("otp issued", "email", email, "code", code)
	return nil
}
