package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch = errors.New("CSRF token mismatch")
	ErrTokenMissing  = errors.New("CSRF token missing")
	ErrStorageNeeded = errors.New("CSRF middleware requires a Storage")
)

// DefaultTokenLength is the byte length for minted tokens. Tokens travel hex
// encoded, so the wire format is twice this long.
const DefaultTokenLength = 32

// DefaultContextKey is where the middleware leaves the token in request locals
const DefaultContextKey = "csrf_token"

// DefaultFormFieldName is the form field checked when no header is present
const DefaultFormFieldName = "_token"

// DefaultHeaderName is the header mutating requests must echo the token in
const DefaultHeaderName = "X-CSRF-Token"

// Config defines the configuration for CSRF middleware.
//
// The middleware implements the double submit pattern backed by server side
// storage: each session gets a random token which mutating requests must echo
// back in a header or form field. The stored value is the single source of
// truth, the cookie never carries the token.
type Config struct {
	// Skip bypasses the middleware entirely when it returns true
	Skip func(router.Context) bool

	// TokenLength overrides the byte length of minted tokens
	TokenLength int

	// ContextKey overrides where the token lands in request locals
	ContextKey string

	// FormFieldName overrides the form field checked for the token
	FormFieldName string

	// HeaderName overrides the header checked for the token
	HeaderName string

	// TokenLookup lists the places to check, e.g.
	// "header:X-CSRF-Token,form:_token"
	TokenLookup string

	// Storage holds the per session tokens. Required.
	Storage Storage

	// ErrorHandler runs on missing or mismatched tokens
	ErrorHandler router.ErrorHandler

	// SuccessHandler runs when validation passes or is skipped
	SuccessHandler router.HandlerFunc

	// SafeMethods never require the token
	SafeMethods []string

	// Expiration bounds how long a stored token lives
	Expiration time.Duration
}

// Storage persists tokens keyed by session
type Storage interface {
	Get(key string) (string, error)
	Set(key string, value string, expiration time.Duration) error
	Delete(key string) error
}

// TokenExtractor pulls a candidate token out of the request
type TokenExtractor func(router.Context) (string, error)

// New creates the CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			token, err := sessionToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			ctx.Locals(cfg.ContextKey+"_header", cfg.HeaderName)

			// safe methods don't require validation
			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return cfg.SuccessHandler(ctx)
			}

			received, err := receivedToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := ValidateToken(received, token); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// GenerateToken mints a cryptographically secure random token, hex encoded.
// With the default length the result is 64 hex characters.
func GenerateToken(length ...int) (string, error) {
	n := DefaultTokenLength
	if len(length) > 0 && length[0] > 0 {
		n = length[0]
	}

	bytes := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}

// ValidateToken compares a candidate token against the stored one using a
// constant time comparison. A missing candidate and a mismatch are both
// rejections: the caller gets a distinct error but the same HTTP status.
func ValidateToken(candidate, stored string) error {
	if candidate == "" {
		return ErrTokenMissing
	}

	if stored == "" {
		return ErrTokenMismatch
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) != 1 {
		return ErrTokenMismatch
	}

	return nil
}

// sessionToken retrieves the session's token, minting one on first contact
func sessionToken(ctx router.Context, cfg Config) (string, error) {
	key := storageKey(ctx)
	if token, err := cfg.Storage.Get(key); err == nil && token != "" {
		return token, nil
	}

	token, err := GenerateToken(cfg.TokenLength)
	if err != nil {
		return "", err
	}

	if err := cfg.Storage.Set(key, token, cfg.Expiration); err != nil {
		return "", err
	}

	return token, nil
}

// receivedToken runs the extractor chain, first non empty candidate wins
func receivedToken(ctx router.Context, cfg Config) (string, error) {
	for _, extract := range buildExtractors(cfg.TokenLookup, cfg.FormFieldName, cfg.HeaderName) {
		token, err := extract(ctx)
		if token != "" && err == nil {
			return token, nil
		}
	}

	return "", nil
}

// storageKey picks the key the token is stored under: the session id when the
// session middleware ran, the user id for authenticated requests without one,
// and the client IP as the anonymous fallback.
func storageKey(ctx router.Context) string {
	if raw := ctx.Locals("session_id"); raw != nil {
		if id, ok := raw.(string); ok && id != "" {
			return id
		}
	}

	if raw := ctx.Locals("user_id"); raw != nil {
		if id, ok := raw.(string); ok && id != "" {
			return "user_" + id
		}
	}

	return "ip_" + ctx.IP()
}

func buildExtractors(tokenLookup, formField, header string) []TokenExtractor {
	if tokenLookup == "" {
		// header wins over the form field
		return []TokenExtractor{
			extractorFromHeader(header),
			extractorFromForm(formField),
		}
	}

	var extractors []TokenExtractor
	for _, part := range strings.Split(tokenLookup, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "form:"):
			extractors = append(extractors, extractorFromForm(strings.TrimPrefix(part, "form:")))
		case strings.HasPrefix(part, "header:"):
			extractors = append(extractors, extractorFromHeader(strings.TrimPrefix(part, "header:")))
		}
	}

	return extractors
}

func extractorFromForm(fieldName string) TokenExtractor {
	return func(ctx router.Context) (string, error) {
		return ctx.FormValue(fieldName), nil
	}
}

func extractorFromHeader(headerName string) TokenExtractor {
	return func(ctx router.Context) (string, error) {
		return ctx.GetString(headerName, ""), nil
	}
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Storage == nil {
		panic(ErrStorageNeeded)
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS"}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler(cfg)
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	return cfg
}

// defaultErrorHandler answers missing and mismatched tokens alike with 403:
// both mean the request did not prove it originated from our frontend.
func defaultErrorHandler(cfg Config) router.ErrorHandler {
	return func(ctx router.Context, err error) error {
		switch err {
		case ErrTokenMissing:
			return ctx.Status(router.StatusForbidden).SendString("CSRF token missing")
		case ErrTokenMismatch:
			return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
		default:
			return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
		}
	}
}

// CSRFTemplateHelpers exposes the token to server rendered views: raw value,
// a hidden form field, and a meta tag fetch calls can read.
func CSRFTemplateHelpers(ctx router.Context, tokenKey string) map[string]any {
	if tokenKey == "" {
		tokenKey = DefaultContextKey
	}

	token := ""
	if value, ok := ctx.Locals(tokenKey).(string); ok {
		token = value
	}

	fieldName := DefaultFormFieldName
	if value, ok := ctx.Locals(tokenKey + "_field").(string); ok && value != "" {
		fieldName = value
	}

	headerName := DefaultHeaderName
	if value, ok := ctx.Locals(tokenKey + "_header").(string); ok && value != "" {
		headerName = value
	}

	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + fieldName + `" value="` + token + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + token + `">`,
		"csrf_header_name": headerName,
	}
}
