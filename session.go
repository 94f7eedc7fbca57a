package webcore

import (
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// SessionIDLocalsKey is where the session middleware stores the sid for
// downstream middleware, the CSRF guard keys its storage on it.
const SessionIDLocalsKey = "session_id"

// SessionMiddleware guarantees every request carries a session id. Anonymous
// visitors get one too, the CSRF token has to be bound to something before
// login ever happens.
func SessionMiddleware(cfg Config) router.MiddlewareFunc {
	secure := cfg == nil || cfg.GetEnvironment() == EnvProduction

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			sid := ctx.Cookies(SessionCookie)
			if sid == "" {
				sid = mintSessionID(ctx, secure)
			}

			ctx.Locals(SessionIDLocalsKey, sid)
			return next(ctx)
		}
	}
}

// RotateSessionID replaces the request's session id with a fresh one. Called
// after authentication so an id handed out before login never names an
// authenticated session.
func RotateSessionID(ctx router.Context, cfg Config) string {
	secure := cfg == nil || cfg.GetEnvironment() == EnvProduction

	sid := mintSessionID(ctx, secure)
	ctx.Locals(SessionIDLocalsKey, sid)
	return sid
}

func mintSessionID(ctx router.Context, secure bool) string {
	sid := uuid.NewString()
	ctx.Cookie(&router.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Expires:  time.Now().Add(DefaultSessionTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
	return sid
}

// SessionIDFromRouter returns the sid the middleware stored for this request
func SessionIDFromRouter(ctx router.Context) string {
	if raw := ctx.Locals(SessionIDLocalsKey); raw != nil {
		if sid, ok := raw.(string); ok {
			return sid
		}
	}
	return ctx.Cookies(SessionCookie)
}
