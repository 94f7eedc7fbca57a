package webcore

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Rich sentinels shared across the auth flow. They carry category, HTTP code,
// and a stable text code so handlers can map them without string matching.
var (
	// ErrTokenExpired is returned for tokens past their exp claim, regardless
	// of signature validity.
	ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode("TOKEN_EXPIRED")

	// ErrTokenMalformed covers tokens that fail to parse or verify.
	ErrTokenMalformed = errors.New("invalid or malformed token", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("TOKEN_MALFORMED")

	// ErrTokenWrongUse is returned when a refresh token is presented where an
	// access token is expected, or the other way around.
	ErrTokenWrongUse = errors.New("token presented for the wrong use", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("TOKEN_WRONG_USE")

	// ErrRefreshReused signals a rotated refresh token was replayed. The whole
	// token family is revoked when this fires.
	ErrRefreshReused = errors.New("refresh token already used", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("REFRESH_REUSED")

	// ErrRefreshInvalid covers unknown, revoked, or expired refresh tokens.
	ErrRefreshInvalid = errors.New("refresh token is not valid", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("REFRESH_INVALID")
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword wrong password for the given identifier
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("BAD_CREDENTIALS")

// ErrTooManyLoginAttempts login attempts over the cool down threshold
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrNoEmptyString guards hashing empty passwords
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryBadInput)

// ErrUnableToFindSession is the error when our request has no auth cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("NO_SESSION")

// ErrUnableToDecodeSession unable to decode claims from the auth cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("BAD_SESSION")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
