package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateToken(42)
	require.NoError(t, err)

	id, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	token, err := NewManager("other", time.Hour).GenerateToken(1)
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1,
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour).ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", time.Hour).ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
