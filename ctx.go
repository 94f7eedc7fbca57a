package webcore

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(r context.Context, principal Principal) context.Context {
	return context.WithValue(r, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(Principal)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}

	switch v := raw.(type) {
	case AuthClaims:
		return v, true
	case *jwt.Token:
		claims, ok := v.Claims.(*JWTClaims)
		return claims, ok
	}

	return nil, false
}

// GetRouterPrincipal extracts the Principal stored by the protected route
// middleware. Returns ErrUnableToFindSession when the request carried no
// validated token.
func GetRouterPrincipal(ctx router.Context, key string) (Principal, error) {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		return Principal{}, ErrUnableToFindSession
	}

	principal, err := PrincipalFromClaims(claims)
	if err != nil {
		return Principal{}, ErrUnableToDecodeSession
	}

	return principal, nil
}
