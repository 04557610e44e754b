package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sulthanfragrance/storefront/internal/models"
)

type denyLimiter struct{ wait time.Duration }

func (d denyLimiter) Allow(ctx context.Context, email, ip string) (bool, time.Duration, error) {
	return false, d.wait, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, email, ip string) (bool, time.Duration, error) {
	return false, 0, context.DeadlineExceeded
}

func TestAuthService_SendAndVerifyOTP(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "Noor@Example.COM", "10.0.0.1"))
	require.Equal(t, "noor@example.com", sender.email)
	require.Len(t, sender.code, 4)

	user, err := svc.VerifyOTP(ctx, "noor@example.com", sender.code)
	require.NoError(t, err)
	require.Equal(t, "noor@example.com", user.Email)
	require.False(t, user.IsStaff)

	// codes are single use
	_, err = svc.VerifyOTP(ctx, "noor@example.com", sender.code)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_VerifyOTP_ReturnsSameUserOnSecondLogin(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "repeat@example.com", ""))
	first, err := svc.VerifyOTP(ctx, "repeat@example.com", sender.code)
	require.NoError(t, err)

	require.NoError(t, svc.SendOTP(ctx, "repeat@example.com", ""))
	second, err := svc.VerifyOTP(ctx, "repeat@example.com", sender.code)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
}

func TestAuthService_SendOTP_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc := &AuthService{Repo: newTestRepo(t), Sender: &fakeSender{}}
	require.ErrorIs(t, svc.SendOTP(context.Background(), "not-an-email", ""), ErrValidation)
}

func TestAuthService_SendOTP_RateLimited(t *testing.T) {
	t.Parallel()

	svc := &AuthService{Repo: newTestRepo(t), Sender: &fakeSender{}, Limiter: denyLimiter{wait: 30 * time.Second}}
	err := svc.SendOTP(context.Background(), "busy@example.com", "10.0.0.2")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestAuthService_SendOTP_LimiterOutageDoesNotBlock(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	svc := &AuthService{Repo: newTestRepo(t), Sender: sender, Limiter: brokenLimiter{}}
	require.NoError(t, svc.SendOTP(context.Background(), "outage@example.com", ""))
	require.NotEmpty(t, sender.code)
}

func TestAuthService_VerifyOTP_WrongCode(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "wrong@example.com", ""))

	bad := "0000"
	if sender.code == bad {
		bad = "9999"
	}
	_, err := svc.VerifyOTP(ctx, "wrong@example.com", bad)
	require.ErrorIs(t, err, ErrValidation)

	// the right code still works after a failed guess
	_, err = svc.VerifyOTP(ctx, "wrong@example.com", sender.code)
	require.NoError(t, err)
}

func TestAuthService_VerifyOTP_Expired(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "late@example.com", ""))
	require.NoError(t, r.DB.Model(&models.OTP{}).
		Where("email = ?", "late@example.com").
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err := svc.VerifyOTP(ctx, "late@example.com", sender.code)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_SendOTP_InvalidatesPreviousCode(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, "twice@example.com", ""))
	firstCode := sender.code

	require.NoError(t, svc.SendOTP(ctx, "twice@example.com", ""))

	if firstCode != sender.code {
		_, err := svc.VerifyOTP(ctx, "twice@example.com", firstCode)
		require.ErrorIs(t, err, ErrValidation)
	}

	_, err := svc.VerifyOTP(ctx, "twice@example.com", sender.code)
	require.NoError(t, err)
}

func TestAuthService_VerifyOTP_DisabledAccount(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	sender := &fakeSender{}
	svc := &AuthService{Repo: r, Sender: sender}
	ctx := context.Background()

	user, err := r.GetOrCreateUser(ctx, "banned@example.com")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, r.SaveUser(ctx, user))

	require.NoError(t, svc.SendOTP(ctx, "banned@example.com", ""))
	_, err = svc.VerifyOTP(ctx, "banned@example.com", sender.code)
	require.ErrorIs(t, err, ErrValidation)
}
