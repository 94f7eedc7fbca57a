package csrf

import "github.com/goliatone/go-router"

// TokenPayload is the response body of the token bootstrap endpoint. The form
// field and header names ride along so clients don't hardcode them.
type TokenPayload struct {
	Token      string `json:"token"`
	FieldName  string `json:"field_name"`
	HeaderName string `json:"header_name"`
}

// RouteConfig controls the token bootstrap endpoint.
type RouteConfig struct {
	// Path is the route registered for retrieving the CSRF token.
	Path string
	// ContextKey is the context key where the middleware stored the token.
	ContextKey string
	// RouteName is the name assigned to the registered route.
	RouteName string
}

const (
	defaultRoutePath = "/auth/csrf-token"
	defaultRouteName = "auth.csrf.get"
)

// RegisterRoutes exposes a GET endpoint serving the session's CSRF token. The
// middleware must run before it so the token is already in the request locals.
func RegisterRoutes[T any](app router.Router[T], cfg ...RouteConfig) {
	conf := routeConfigDefault(cfg...)
	app.Get(conf.Path, TokenHandler(conf)).SetName(conf.RouteName)
}

func routeConfigDefault(cfg ...RouteConfig) RouteConfig {
	conf := RouteConfig{
		Path:       defaultRoutePath,
		ContextKey: DefaultContextKey,
		RouteName:  defaultRouteName,
	}

	if len(cfg) > 0 {
		override := cfg[0]
		if override.Path != "" {
			conf.Path = override.Path
		}
		if override.ContextKey != "" {
			conf.ContextKey = override.ContextKey
		}
		if override.RouteName != "" {
			conf.RouteName = override.RouteName
		}
	}

	return conf
}

// TokenHandler serves the session's CSRF token. Responses are marked
// uncacheable so proxies never hand one session's token to another.
func TokenHandler(cfg RouteConfig) router.HandlerFunc {
	return func(ctx router.Context) error {
		token, _ := ctx.Locals(cfg.ContextKey).(string)
		if token == "" {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": ErrTokenMissing.Error(),
			})
		}

		ctx.SetHeader("Cache-Control", "no-store, max-age=0")
		ctx.SetHeader("Pragma", "no-cache")
		ctx.SetHeader("Expires", "0")

		return ctx.JSON(router.StatusOK, tokenPayload(ctx, cfg, token))
	}
}

func tokenPayload(ctx router.Context, cfg RouteConfig, token string) TokenPayload {
	payload := TokenPayload{
		Token:      token,
		FieldName:  DefaultFormFieldName,
		HeaderName: DefaultHeaderName,
	}

	if v, ok := ctx.Locals(cfg.ContextKey + "_field").(string); ok && v != "" {
		payload.FieldName = v
	}

	if v, ok := ctx.Locals(cfg.ContextKey + "_header").(string); ok && v != "" {
		payload.HeaderName = v
	}

	return payload
}
