package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "a@b.c", true)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTManager_RejectsWrongType(t *testing.T) {
	m := NewJWTManager("secret", time.Minute, time.Hour)

	refresh, err := m.GenerateRefreshToken(uuid.New(), "a@b.c", false)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = m.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestJWTManager_RejectsExpiredAndForeign(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute, time.Hour)
	expired, err := m.GenerateAccessToken(uuid.New(), "a@b.c", false)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTManager("other-secret", time.Minute, time.Hour)
	foreign, err := other.GenerateAccessToken(uuid.New(), "a@b.c", false)
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Minute, time.Hour).ValidateAccessToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
