package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager(testSecret, "member-portal", time.Hour)
	require.NoError(t, err)

	token, exp, err := m.Generate("tenant-a", "u1", "member")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", claims.TenantID)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "member", claims.Role)
}

func TestManager_Expired(t *testing.T) {
	m, err := NewManager(testSecret, "member-portal", time.Minute)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, _, err := m.Generate("tenant-a", "u1", "")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_WrongSecretOrIssuer(t *testing.T) {
	m, err := NewManager(testSecret, "member-portal", time.Hour)
	require.NoError(t, err)
	token, _, err := m.Generate("tenant-a", "u1", "")
	require.NoError(t, err)

	other, err := NewManager("another-secret-that-is-long", "member-portal", time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer, err := NewManager(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = otherIssuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_MissingTenant(t *testing.T) {
	m, err := NewManager(testSecret, "member-portal", time.Hour)
	require.NoError(t, err)
	token, _, err := m.Generate("", "u1", "")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestNewManager_ShortSecret(t *testing.T) {
	_, err := NewManager("short", "x", time.Hour)
	assert.Error(t, err)
}
