package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour)
	userID := uuid.New()

	token, err := m.GenerateToken(userID)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID())
}

func TestSessionsAreUnique(t *testing.T) {
	m := NewManager("secret", time.Hour)
	userID := uuid.New()

	first, err := m.GenerateToken(userID)
	require.NoError(t, err)
	second, err := m.GenerateToken(userID)
	require.NoError(t, err)

	a, err := m.ValidateToken(first)
	require.NoError(t, err)
	b, err := m.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestValidateRejectsForeignAndExpired(t *testing.T) {
	token, err := NewManager("other", time.Hour).GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err = expired.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", time.Hour).ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
