package webcore

import (
	"github.com/google/uuid"
)

// Principal is the authenticated identity derived from a validated token. It
// is a projection of the token claims, rebuilt on every request and never
// persisted.
type Principal struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Role  UserRole `json:"role,omitempty"`
}

// IsZero reports whether the principal carries no identity
func (p Principal) IsZero() bool {
	return p.ID == ""
}

// UserUUID parses the subject id as a UUID
func (p Principal) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(p.ID)
}

// HasRole checks if the principal has a specific role
func (p Principal) HasRole(role string) bool {
	return string(p.Role) == role
}

// IsAtLeast checks if the principal's role is at least the minimum required role
func (p Principal) IsAtLeast(minRole UserRole) bool {
	return RoleAtLeast(p.Role, minRole)
}

// PrincipalFromClaims projects validated claims into a Principal. Values are
// taken verbatim from the token; we deliberately do not re-fetch the user
// record, short access token TTLs bound the staleness window.
func PrincipalFromClaims(claims AuthClaims) (Principal, error) {
	if claims == nil {
		return Principal{}, ErrUnableToDecodeSession
	}

	role := claims.Role()
	if _, ok := ParseRole(role); !ok {
		role = RoleGuest
	}

	return Principal{
		ID:    claims.UserID(),
		Email: claims.Email(),
		Name:  claims.Name(),
		Role:  role,
	}, nil
}

// claimsIdentity lets the authenticator mint a fresh token pair from refresh
// claims without a round trip to the user store.
type claimsIdentity struct {
	claims AuthClaims
}

func (c claimsIdentity) ID() string    { return c.claims.UserID() }
func (c claimsIdentity) Email() string { return c.claims.Email() }
func (c claimsIdentity) Name() string  { return c.claims.Name() }
func (c claimsIdentity) Role() string  { return c.claims.Role() }

var _ Identity = claimsIdentity{}
