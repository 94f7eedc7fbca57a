package webcore_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webcore "github.com/veridianlabs/webcore"
)

func testClaims(role string) *webcore.JWTClaims {
	return &webcore.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		UserEmail:        "jane@example.com",
		UserName:         "Jane Doe",
		UserRole:         role,
		TokenUse:         webcore.TokenUseAccess,
	}
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	principal := webcore.Principal{ID: "user-1", Role: webcore.RoleMember}

	ctx := webcore.WithPrincipal(context.Background(), principal)
	got, ok := webcore.PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, principal, got)

	_, ok = webcore.PrincipalFromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := testClaims(webcore.RoleMember)

	ctx := webcore.WithClaimsContext(context.Background(), claims)
	got, ok := webcore.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID())

	_, ok = webcore.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestGetRouterClaims(t *testing.T) {
	t.Run("structured claims under default key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = testClaims(webcore.RoleMember)

		claims, ok := webcore.GetRouterClaims(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "user-1", claims.UserID())
	})

	t.Run("custom context key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["custom-claims"] = testClaims(webcore.RoleMember)

		claims, ok := webcore.GetRouterClaims(ctx, "custom-claims")
		require.True(t, ok)
		assert.Equal(t, "user-1", claims.UserID())
	})

	t.Run("raw jwt token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = &jwt.Token{Claims: testClaims(webcore.RoleAdmin)}

		claims, ok := webcore.GetRouterClaims(ctx, "user")
		require.True(t, ok)
		assert.Equal(t, webcore.RoleAdmin, claims.Role())
	})

	t.Run("missing claims", func(t *testing.T) {
		ctx := router.NewMockContext()
		_, ok := webcore.GetRouterClaims(ctx, "user")
		assert.False(t, ok)
	})

	t.Run("unexpected payload type", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = "not-a-claims-object"

		_, ok := webcore.GetRouterClaims(ctx, "user")
		assert.False(t, ok)
	})
}

func TestGetRouterPrincipal(t *testing.T) {
	t.Run("projects validated claims", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = testClaims(webcore.RoleAdmin)

		principal, err := webcore.GetRouterPrincipal(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.ID)
		assert.Equal(t, webcore.RoleAdmin, principal.Role)
	})

	t.Run("no session", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, err := webcore.GetRouterPrincipal(ctx, "user")
		assert.ErrorIs(t, err, webcore.ErrUnableToFindSession)
	})
}
