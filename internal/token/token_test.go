package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("test-secret"))
	userID := uuid.New()

	signed, expires, err := svc.Issue(userID, true)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, time.Now().UTC().Add(svc.TTL), expires, time.Minute)

	claims, err := svc.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.True(t, claims.IsStaff)
	require.Equal(t, userID.String(), claims.Subject)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	signed, _, err := NewService([]byte("secret-a")).Issue(uuid.New(), false)
	require.NoError(t, err)

	_, err = NewService([]byte("secret-b")).Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	t.Parallel()

	_, err := NewService([]byte("secret")).Parse("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	svc := &Service{Secret: []byte("secret"), TTL: -time.Minute}
	signed, _, err := svc.Issue(uuid.New(), false)
	require.NoError(t, err)

	_, err = svc.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
