package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse_RoundTripsClaims(t *testing.T) {
	m, err := NewManager("s3cret", time.Hour)
	require.NoError(t, err)

	tok, err := m.Issue("654b6757cb2dad9ea8d151f6", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "654b6757cb2dad9ea8d151f6", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}

func TestIssue_ZeroTTLHasNoExpiry(t *testing.T) {
	m, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	tok, err := m.Issue("654b6757cb2dad9ea8d151f6", "")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
	assert.Empty(t, claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	m, err := NewManager("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewManager("different", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("654b6757cb2dad9ea8d151f6", models.RoleUser)
	require.NoError(t, err)

	expiredMgr, err := NewManager("s3cret", time.Minute)
	require.NoError(t, err)
	expiredMgr.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredMgr.Issue("654b6757cb2dad9ea8d151f6", models.RoleUser)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "654b6757cb2dad9ea8d151f6"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noID, err := m.Issue("", models.RoleUser)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"expired":        expired,
		"alg none":       unsigned,
		"missing userid": noID,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Hour)
	assert.Error(t, err)
}
