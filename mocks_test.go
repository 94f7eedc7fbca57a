package webcore_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/mock"

	webcore "github.com/veridianlabs/webcore"
)

// testIdentity implements webcore.Identity for testing
type testIdentity struct {
	id    string
	email string
	name  string
	role  string
}

func (i testIdentity) ID() string    { return i.id }
func (i testIdentity) Email() string { return i.email }
func (i testIdentity) Name() string  { return i.name }
func (i testIdentity) Role() string  { return i.role }

func newTestIdentity() testIdentity {
	return testIdentity{
		id:    uuid.NewString(),
		email: "jane@example.com",
		name:  "Jane Doe",
		role:  webcore.RoleMember,
	}
}

// testConfig implements webcore.Config for testing
type testConfig struct {
	signingKey  string
	environment string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	issuer      string
	audience    []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:  "test-signing-key",
		environment: "development",
		accessTTL:   webcore.DefaultAccessTokenTTL,
		refreshTTL:  webcore.DefaultRefreshTokenTTL,
		issuer:      "webcore-test",
	}
}

func (c *testConfig) GetSigningKey() string              { return c.signingKey }
func (c *testConfig) GetSigningMethod() string           { return "HS256" }
func (c *testConfig) GetContextKey() string              { return "user" }
func (c *testConfig) GetAccessTokenTTL() time.Duration   { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration  { return c.refreshTTL }
func (c *testConfig) GetTokenLookup() string             { return "cookie:" + webcore.AccessTokenCookie }
func (c *testConfig) GetIssuer() string                  { return c.issuer }
func (c *testConfig) GetAudience() []string              { return c.audience }
func (c *testConfig) GetEnvironment() string             { return c.environment }

var _ webcore.Config = (*testConfig)(nil)

// MockIdentityProvider implements webcore.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (webcore.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(webcore.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (webcore.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(webcore.Identity), args.Error(1)
}

// MockRefreshTokens stubs the rotation record store. The embedded interface
// covers the repository surface the tests never touch.
type MockRefreshTokens struct {
	webcore.RefreshTokens

	CreateFn  func(ctx context.Context, record *webcore.RefreshToken) (*webcore.RefreshToken, error)
	ConsumeFn func(ctx context.Context, jti string) error
	RevokeFn  func(ctx context.Context, userID uuid.UUID) error

	Created []*webcore.RefreshToken
	Revoked []uuid.UUID
}

func (m *MockRefreshTokens) Create(ctx context.Context, record *webcore.RefreshToken, criteria ...repository.InsertCriteria) (*webcore.RefreshToken, error) {
	m.Created = append(m.Created, record)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, record)
	}
	return record, nil
}

func (m *MockRefreshTokens) Consume(ctx context.Context, jti string) error {
	if m.ConsumeFn != nil {
		return m.ConsumeFn(ctx, jti)
	}
	return nil
}

func (m *MockRefreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.Revoked = append(m.Revoked, userID)
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, userID)
	}
	return nil
}
