package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 30*time.Minute, 3*time.Hour)
}

func TestPairCarriesTypeAndIdentity(t *testing.T) {
	m := newTestManager()

	access, refresh, err := m.Pair("user-1", "a@b.c")
	require.NoError(t, err)

	accessClaims, err := m.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, TypeAccess, accessClaims.Type)
	assert.Equal(t, "user-1", accessClaims.UserID)
	assert.Equal(t, "a@b.c", accessClaims.Email)
	assert.NotEmpty(t, accessClaims.ID)

	refreshClaims, err := m.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, refreshClaims.Type)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	access, err := m.SignAccess("user-1", "a@b.c")
	require.NoError(t, err)

	other := NewManager("different-secret", 30*time.Minute, 3*time.Hour)
	_, err = other.Verify(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 3*time.Hour)
	access, err := m.SignAccess("user-1", "a@b.c")
	require.NoError(t, err)

	_, err = m.Verify(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager()
	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
