package main

import (
	"fmt"
	"time"

	webcore "github.com/veridianlabs/webcore"
)

// BaseConfig is the application configuration tree. go-config hydrates it
// from config files and environment variables.
type BaseConfig struct {
	Environment string            `json:"environment" koanf:"environment"`
	Server      ServerConfig      `json:"server" koanf:"server"`
	Auth        AuthConfig        `json:"auth" koanf:"auth"`
	Persistence PersistenceConfig `json:"persistence" koanf:"persistence"`
	Views       ViewsConfig       `json:"views" koanf:"views"`
	Admin       AdminConfig       `json:"admin" koanf:"admin"`
}

// AdminConfig describes the account seeded at boot. Nothing is seeded when
// the credentials are left empty.
type AdminConfig struct {
	Email     string `json:"email" koanf:"email"`
	Password  string `json:"password" koanf:"password"`
	FirstName string `json:"first_name" koanf:"first_name"`
	LastName  string `json:"last_name" koanf:"last_name"`
}

type ServerConfig struct {
	Address string `json:"address" koanf:"address"`
}

type PersistenceConfig struct {
	DSN string `json:"dsn" koanf:"dsn"`
}

type ViewsConfig struct {
	Dir       string `json:"dir" koanf:"dir"`
	Extension string `json:"extension" koanf:"extension"`
	Reload    bool   `json:"reload" koanf:"reload"`
}

type AuthConfig struct {
	SigningKey           string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod        string   `json:"signing_method" koanf:"signing_method"`
	ContextKey           string   `json:"context_key" koanf:"context_key"`
	TokenLookup          string   `json:"token_lookup" koanf:"token_lookup"`
	Issuer               string   `json:"issuer" koanf:"issuer"`
	Audience             []string `json:"audience" koanf:"audience"`
	AccessTTLExpression  string   `json:"access_ttl" koanf:"access_ttl"`
	RefreshTTLExpression string   `json:"refresh_ttl" koanf:"refresh_ttl"`

	environment string
}

func (a BaseConfig) Validate() error {
	return nil
}

// EnsureDefaults fills the blanks after loading. The signing key deliberately
// has no production default, ValidateConfig enforces that at boot.
func (a *BaseConfig) EnsureDefaults() *BaseConfig {
	if a.Environment == "" {
		a.Environment = "development"
	}

	if a.Server.Address == "" {
		a.Server.Address = ":8590"
	}

	if a.Persistence.DSN == "" {
		a.Persistence.DSN = "file:webcore.db?cache=shared&mode=rwc"
	}

	if a.Views.Dir == "" {
		a.Views.Dir = "views"
	}

	if a.Views.Extension == "" {
		a.Views.Extension = ".html"
	}

	if a.Auth.SigningKey == "" && a.Environment != webcore.EnvProduction {
		a.Auth.SigningKey = webcore.DevSigningKey
	}

	if a.Auth.SigningMethod == "" {
		a.Auth.SigningMethod = "HS256"
	}

	if a.Auth.ContextKey == "" {
		a.Auth.ContextKey = "user"
	}

	if a.Auth.TokenLookup == "" {
		a.Auth.TokenLookup = "cookie:" + webcore.AccessTokenCookie
	}

	if a.Auth.Issuer == "" {
		a.Auth.Issuer = "webcore"
	}

	if a.Auth.AccessTTLExpression == "" {
		a.Auth.AccessTTLExpression = "15m"
	}

	if a.Auth.RefreshTTLExpression == "" {
		a.Auth.RefreshTTLExpression = "168h"
	}

	a.Auth.environment = a.Environment

	return a
}

// GetAuth returns the auth section as the webcore Config interface
func (a *BaseConfig) GetAuth() webcore.Config {
	return &a.Auth
}

func (a *BaseConfig) GetServer() ServerConfig           { return a.Server }
func (a *BaseConfig) GetAdmin() AdminConfig             { return a.Admin }
func (a *BaseConfig) GetPersistence() PersistenceConfig { return a.Persistence }
func (a *BaseConfig) GetViews() ViewsConfig             { return a.Views }

func (p PersistenceConfig) GetDSN() string { return p.DSN }

func (c *AuthConfig) GetSigningKey() string    { return c.SigningKey }
func (c *AuthConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *AuthConfig) GetContextKey() string    { return c.ContextKey }
func (c *AuthConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c *AuthConfig) GetIssuer() string        { return c.Issuer }
func (c *AuthConfig) GetAudience() []string    { return c.Audience }
func (c *AuthConfig) GetEnvironment() string   { return c.environment }

func (c *AuthConfig) GetAccessTokenTTL() time.Duration {
	return c.parseTTL(c.AccessTTLExpression, webcore.DefaultAccessTokenTTL)
}

func (c *AuthConfig) GetRefreshTokenTTL() time.Duration {
	return c.parseTTL(c.RefreshTTLExpression, webcore.DefaultRefreshTokenTTL)
}

func (c *AuthConfig) parseTTL(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(fmt.Sprintf("unable to parse time: expr %s", expr))
	}
	return dur
}

var _ webcore.Config = (*AuthConfig)(nil)
