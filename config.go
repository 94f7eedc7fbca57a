package webcore

import (
	"time"

	"github.com/goliatone/go-errors"
)

// DevSigningKey is the fallback key used outside production so local setups
// work without ceremony. Production refuses to boot on it.
const DevSigningKey = "dev-signing-key-do-not-use-in-prod"

// EnvProduction is the environment name that triggers strict config checks
const EnvProduction = "production"

// Default token lifetimes. The access token is deliberately short since the
// refresh endpoint can mint a replacement without user interaction.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrMissingSigningKey means production booted without a real signing secret
var ErrMissingSigningKey = errors.New("signing key is required in production", errors.CategoryInternal).
	WithTextCode("MISSING_SIGNING_KEY")

// ErrBadTokenTTL means the configured token lifetimes make no sense
var ErrBadTokenTTL = errors.New("token TTLs must be positive and refresh must outlive access", errors.CategoryInternal).
	WithTextCode("BAD_TOKEN_TTL")

// ValidateConfig fails fast on configuration that must never reach serving
// traffic: a production deployment with a missing or development signing key
// refuses to start rather than silently minting forgeable tokens.
func ValidateConfig(cfg Config) error {
	if cfg == nil {
		return errors.New("auth config is required", errors.CategoryInternal)
	}

	key := cfg.GetSigningKey()
	env := cfg.GetEnvironment()

	if env == EnvProduction {
		if key == "" || key == DevSigningKey {
			return ErrMissingSigningKey.WithMetadata(map[string]any{
				"environment": env,
			})
		}
	}

	if key == "" {
		return errors.New("signing key is required", errors.CategoryInternal).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	accessTTL := cfg.GetAccessTokenTTL()
	refreshTTL := cfg.GetRefreshTokenTTL()

	if accessTTL <= 0 || refreshTTL <= 0 || refreshTTL <= accessTTL {
		return ErrBadTokenTTL.WithMetadata(map[string]any{
			"access_ttl":  accessTTL.String(),
			"refresh_ttl": refreshTTL.String(),
		})
	}

	return nil
}
