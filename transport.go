package webcore

import (
	"time"

	"github.com/goliatone/go-router"
)

// Cookie names used for token transport. Clients never see token material in
// response bodies, only in these httpOnly cookies.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	SessionCookie      = "sid"
)

// AuthResult is what the authenticator hands to the transport layer after a
// successful login or refresh.
type AuthResult struct {
	Pair      *TokenPair
	Principal Principal
}

// CookieTransport moves the token pair in and out of httpOnly cookies. Scripts
// cannot read the tokens, and SameSite=Strict keeps the browser from attaching
// them to cross site requests.
type CookieTransport struct {
	secure bool
	logger Logger
}

// NewCookieTransport builds a transport. Secure cookies are enforced for
// production; local http development keeps them off so browsers accept them.
func NewCookieTransport(cfg Config) *CookieTransport {
	return &CookieTransport{
		secure: cfg == nil || cfg.GetEnvironment() == EnvProduction,
		logger: defLogger{},
	}
}

func (t *CookieTransport) WithLogger(logger Logger) *CookieTransport {
	t.logger = logger
	return t
}

// Transform projects an auth result into the JSON body and the cookies that
// carry the tokens. The body holds only the principal: no token strings leak
// into anything a script can read.
func (t *CookieTransport) Transform(result AuthResult) (map[string]any, []*router.Cookie) {
	body := map[string]any{
		"user": result.Principal,
	}

	if result.Pair == nil {
		return body, nil
	}

	body["expires_at"] = result.Pair.AccessExpiresAt

	cookies := []*router.Cookie{
		t.tokenCookie(AccessTokenCookie, result.Pair.AccessToken, result.Pair.AccessExpiresAt),
		t.tokenCookie(RefreshTokenCookie, result.Pair.RefreshToken, result.Pair.RefreshExpiresAt),
	}

	return body, cookies
}

// Apply writes the token cookies onto the response
func (t *CookieTransport) Apply(c router.Context, cookies []*router.Cookie) {
	for _, cookie := range cookies {
		c.Cookie(cookie)
	}
}

// ReadAccessToken pulls the access token from its cookie
func (t *CookieTransport) ReadAccessToken(c router.Context) string {
	return c.Cookies(AccessTokenCookie)
}

// ReadRefreshToken pulls the refresh token from its cookie
func (t *CookieTransport) ReadRefreshToken(c router.Context) string {
	return c.Cookies(RefreshTokenCookie)
}

// Clear expires both token cookies. Used on logout and on refresh failure so
// the browser stops resending dead tokens.
func (t *CookieTransport) Clear(c router.Context) {
	c.Cookie(t.expiredCookie(AccessTokenCookie))
	c.Cookie(t.expiredCookie(RefreshTokenCookie))
}

func (t *CookieTransport) tokenCookie(name, value string, expires time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   t.secure,
		SameSite: "Strict",
	}
}

func (t *CookieTransport) expiredCookie(name string) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   t.secure,
		SameSite: "Strict",
	}
}
