package webcore_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webcore "github.com/veridianlabs/webcore"
)

func newTestTokenService(accessTTL, refreshTTL time.Duration) webcore.TokenService {
	return webcore.NewTokenService(
		[]byte("test-signing-key"),
		accessTTL,
		refreshTTL,
		"webcore-test",
		jwt.ClaimStrings{"webcore-clients"},
		nil,
	)
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	identity := newTestIdentity()

	token, expiresAt, err := service.IssueAccessToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, identity.Email(), claims.Email())
	assert.Equal(t, identity.Name(), claims.Name())
	assert.Equal(t, identity.Role(), claims.Role())
	assert.Equal(t, webcore.TokenUseAccess, claims.Use())
	assert.NotEmpty(t, claims.TokenID())
}

func TestTokenService_RefreshTokenRoundTrip(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	identity := newTestIdentity()

	token, expiresAt, jti, err := service.IssueRefreshToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	claims, err := service.ValidateRefresh(token)
	require.NoError(t, err)

	assert.Equal(t, webcore.TokenUseRefresh, claims.Use())
	assert.Equal(t, jti, claims.TokenID())
	assert.Equal(t, identity.ID(), claims.UserID())
}

func TestTokenService_UseDiscrimination(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	identity := newTestIdentity()

	access, _, err := service.IssueAccessToken(identity)
	require.NoError(t, err)

	refresh, _, _, err := service.IssueRefreshToken(identity)
	require.NoError(t, err)

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, err := service.Validate(refresh)
		assert.ErrorIs(t, err, webcore.ErrTokenWrongUse)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		_, err := service.ValidateRefresh(access)
		assert.ErrorIs(t, err, webcore.ErrTokenWrongUse)
	})
}

func TestTokenService_ExpiredToken(t *testing.T) {
	service := newTestTokenService(-time.Minute, 7*24*time.Hour)
	identity := newTestIdentity()

	token, _, err := service.IssueAccessToken(identity)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.True(t, webcore.IsTokenExpiredError(err))
}

func TestTokenService_WrongSigningKey(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	other := webcore.NewTokenService(
		[]byte("a-completely-different-key"),
		15*time.Minute,
		7*24*time.Hour,
		"webcore-test",
		jwt.ClaimStrings{"webcore-clients"},
		nil,
	)

	token, _, err := other.IssueAccessToken(newTestIdentity())
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.False(t, webcore.IsTokenExpiredError(err))
}

func TestTokenService_WrongSigningMethod(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)

	claims := jwt.MapClaims{
		"sub": "12345",
		"iss": "webcore-test",
		"aud": "webcore-clients",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	other := webcore.NewTokenService(
		[]byte("test-signing-key"),
		15*time.Minute,
		7*24*time.Hour,
		"somebody-else",
		jwt.ClaimStrings{"webcore-clients"},
		nil,
	)

	token, _, err := other.IssueAccessToken(newTestIdentity())
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)
	identity := newTestIdentity()

	_, _, first, err := service.IssueRefreshToken(identity)
	require.NoError(t, err)

	_, _, second, err := service.IssueRefreshToken(identity)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_SignClaimsNil(t *testing.T) {
	service := newTestTokenService(15*time.Minute, 7*24*time.Hour)

	_, err := service.SignClaims(nil)
	assert.Error(t, err)
}
