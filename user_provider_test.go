package webcore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webcore "github.com/veridianlabs/webcore"
)

// stubUserTracker fakes the user store behind the identity provider
type stubUserTracker struct {
	user *webcore.User
	err  error

	attempted  int
	successful int
}

func (s *stubUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*webcore.User, error) {
	return s.user, s.err
}

func (s *stubUserTracker) TrackAttemptedLogin(ctx context.Context, user *webcore.User) error {
	s.attempted++
	return nil
}

func (s *stubUserTracker) TrackSuccessfulLogin(ctx context.Context, user *webcore.User) error {
	s.successful++
	return nil
}

func newStoredUser(t *testing.T, password string) *webcore.User {
	t.Helper()

	hash, err := webcore.HashPassword(password)
	require.NoError(t, err)

	return &webcore.User{
		ID:           uuid.New(),
		Role:         webcore.RoleMember,
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		PasswordHash: hash,
	}
}

func TestUserProvider_VerifyIdentity(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		store := &stubUserTracker{user: newStoredUser(t, "secret")}
		provider := webcore.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "secret")
		require.NoError(t, err)

		assert.Equal(t, store.user.ID.String(), identity.ID())
		assert.Equal(t, "jane@example.com", identity.Email())
		assert.Equal(t, "Jane Doe", identity.Name())
		assert.Equal(t, webcore.RoleMember, identity.Role())
		assert.Equal(t, 1, store.successful)
		assert.Zero(t, store.attempted)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		store := &stubUserTracker{user: newStoredUser(t, "secret")}
		provider := webcore.NewUserProvider(store)

		_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "wrong")
		assert.ErrorIs(t, err, webcore.ErrMismatchedHashAndPassword)
		assert.Equal(t, 1, store.attempted)
		assert.Zero(t, store.successful)
	})

	t.Run("too many recent attempts cools down", func(t *testing.T) {
		user := newStoredUser(t, "secret")
		now := time.Now()
		user.LoginAttempts = webcore.MaxLoginAttempts + 1
		user.LoginAttemptAt = &now

		store := &stubUserTracker{user: user}
		provider := webcore.NewUserProvider(store)

		_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "secret")
		assert.ErrorIs(t, err, webcore.ErrTooManyLoginAttempts)
	})

	t.Run("stale attempts are forgiven", func(t *testing.T) {
		user := newStoredUser(t, "secret")
		past := time.Now().Add(-48 * time.Hour)
		user.LoginAttempts = webcore.MaxLoginAttempts + 1
		user.LoginAttemptAt = &past

		store := &stubUserTracker{user: user}
		provider := webcore.NewUserProvider(store)

		_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "secret")
		assert.NoError(t, err)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		user := newStoredUser(t, "secret")
		user.Role = "superuser"

		store := &stubUserTracker{user: user}
		provider := webcore.NewUserProvider(store)

		_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "secret")
		assert.Error(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := &stubUserTracker{}
		provider := webcore.NewUserProvider(store)

		_, err := provider.VerifyIdentity(context.Background(), "ghost@example.com", "secret")
		assert.ErrorIs(t, err, webcore.ErrIdentityNotFound)
	})
}

func TestUserProvider_FindIdentityByIdentifier(t *testing.T) {
	store := &stubUserTracker{user: newStoredUser(t, "secret")}
	provider := webcore.NewUserProvider(store)

	identity, err := provider.FindIdentityByIdentifier(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity.Email())
}

func TestUserDisplayName(t *testing.T) {
	user := &webcore.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	assert.Equal(t, "Jane Doe", user.DisplayName())

	nameless := &webcore.User{Email: "jane@example.com"}
	assert.Equal(t, "jane@example.com", nameless.DisplayName())
}

func TestRefreshTokenActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&webcore.RefreshToken{ExpiresAt: &future}).Active(now))
	assert.False(t, (&webcore.RefreshToken{ExpiresAt: &past}).Active(now))
	assert.False(t, (&webcore.RefreshToken{ExpiresAt: &future, UsedAt: &past}).Active(now))
	assert.False(t, (&webcore.RefreshToken{ExpiresAt: &future, RevokedAt: &past}).Active(now))
	assert.False(t, (&webcore.RefreshToken{}).Active(now))
}
