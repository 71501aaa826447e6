package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("Sarah Chen")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Chen", claims.Viewer())
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	_, err := m.Generate("")
	assert.Error(t, err)

	other, err := NewJWTManager("other-secret", time.Hour).Generate("You")
	require.NoError(t, err)
	_, err = m.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTManager("test-secret", -time.Minute).Generate("You")
	require.NoError(t, err)
	_, err = m.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
