package webcore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use discriminators. A refresh token must never be accepted where an
// access token is expected, and vice versa.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// AuthClaims represents the structured claims of a validated token
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Name() string
	Role() string
	Use() string
	TokenID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserEmail string `json:"email,omitempty"`
	UserName  string `json:"name,omitempty"`
	UserRole  string `json:"role,omitempty"`
	TokenUse  string `json:"use,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID is an alias for the subject claim
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Name returns the display name claim
func (c *JWTClaims) Name() string {
	return c.UserName
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Use returns the token use discriminator, defaulting to access for tokens
// minted before the discriminator existed.
func (c *JWTClaims) Use() string {
	if c.TokenUse == "" {
		return TokenUseAccess
	}
	return c.TokenUse
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
