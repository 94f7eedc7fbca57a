package webcore

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/veridianlabs/webcore/middleware/jwtware"
)

// RouteAuthenticator binds the Authenticator to cookie based HTTP transport
type RouteAuthenticator struct {
	auth             *Auther
	cfg              Config
	transport        *CookieTransport
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	a := &RouteAuthenticator{
		cfg:       cfg,
		auth:      auther,
		transport: NewCookieTransport(cfg),
		Logger:    defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

// Transport exposes the cookie transport, mostly for tests
func (a *RouteAuthenticator) Transport() *CookieTransport {
	return a.transport
}

// ProtectedRoute guards a route with access token validation. The token rides
// in the accessToken cookie by default, per the configured token lookup.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: accessTokenValidator{ts: a.auth.TokenService()},
			ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(ctx, ac)
				}
				return ctx
			},
		})(hf)
	}
}

// Login authenticates the payload and sets the token cookies. The returned
// body carries the principal, never token material.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (map[string]any, error) {
	pair, principal, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return nil, err
	}

	body, cookies := a.transport.Transform(AuthResult{Pair: pair, Principal: principal})
	a.transport.Apply(ctx, cookies)

	return body, nil
}

// Refresh rotates the refresh token from its cookie. Any failure clears both
// token cookies so the browser stops replaying dead credentials.
func (a *RouteAuthenticator) Refresh(ctx router.Context) (map[string]any, error) {
	raw := a.transport.ReadRefreshToken(ctx)
	if raw == "" {
		a.transport.Clear(ctx)
		return nil, ErrUnableToFindSession
	}

	pair, principal, err := a.auth.Refresh(ctx.Context(), raw)
	if err != nil {
		a.Logger.Warn("Refresh failed, clearing token cookies", "error", err)
		a.transport.Clear(ctx)
		return nil, err
	}

	body, cookies := a.transport.Transform(AuthResult{Pair: pair, Principal: principal})
	a.transport.Apply(ctx, cookies)

	return body, nil
}

// Logout revokes the user's refresh tokens when we can still identify them,
// then clears the token cookies either way.
func (a *RouteAuthenticator) Logout(ctx router.Context) error {
	if userID := a.logoutUserID(ctx); userID != "" {
		if err := a.auth.RevokeRefreshTokens(ctx.Context(), userID); err != nil {
			a.Logger.Error("Logout failed to revoke refresh tokens", "error", err)
		}
	}

	a.transport.Clear(ctx)
	return nil
}

// logoutUserID identifies who is logging out. The access token is checked
// first, but it expires long before the refresh token does: when it no longer
// validates, the refresh cookie still names the user, and logout must not
// leave a live refresh token behind just because the access token aged out.
func (a *RouteAuthenticator) logoutUserID(ctx router.Context) string {
	if raw := a.transport.ReadAccessToken(ctx); raw != "" {
		if principal, err := a.auth.PrincipalFromToken(raw); err == nil && !principal.IsZero() {
			return principal.ID
		}
	}

	if raw := a.transport.ReadRefreshToken(ctx); raw != "" {
		if claims, err := a.auth.TokenService().ValidateRefresh(raw); err == nil {
			return claims.UserID()
		}
	}

	return ""
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
	)

	return c.JSON(router.StatusUnauthorized, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		code := richErr.Code
		if code == 0 {
			code = router.StatusInternalServerError
		}
		return c.JSON(code, map[string]any{
			"error": richErr.Message,
		})
	}
}

// accessTokenValidator adapts the TokenService to the jwtware contract
type accessTokenValidator struct {
	ts TokenService
}

func (v accessTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)
