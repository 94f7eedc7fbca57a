package webcore_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	webcore "github.com/veridianlabs/webcore"
)

// stubRegistry runs the transactional callback directly, no database behind it
type stubRegistry struct {
	webcore.RepositoryManager

	users *stubUsersRepo
}

func (s *stubRegistry) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRegistry) Users() webcore.Users { return s.users }

type stubUsersRepo struct {
	webcore.Users

	created *webcore.User
}

func (s *stubUsersRepo) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *webcore.User) (*webcore.User, error) {
	s.created = record
	return record, nil
}

func TestRegisterUser(t *testing.T) {
	repo := &stubRegistry{users: &stubUsersRepo{}}

	user, err := webcore.RegisterUser(context.Background(), repo, webcore.RegisterUserInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Role:      webcore.RoleAdmin,
		Password:  "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, webcore.RoleAdmin, user.Role)
	assert.Equal(t, uuid.Nil, user.ID, "id assignment is left to the repository")

	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.NoError(t, webcore.ComparePasswordAndHash("secret", user.PasswordHash))
	assert.Same(t, user, repo.users.created)
}

func TestRegisterUserDeterministicID(t *testing.T) {
	register := func(email string) *webcore.User {
		repo := &stubRegistry{users: &stubUsersRepo{}}
		user, err := webcore.RegisterUser(context.Background(), repo, webcore.RegisterUserInput{
			Email:           email,
			Role:            webcore.RoleMember,
			Password:        "secret",
			DeterministicID: true,
		})
		require.NoError(t, err)
		return user
	}

	first := register("jane@example.com")
	second := register("jane@example.com")
	other := register("john@example.com")

	require.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, first.ID, second.ID, "same email derives the same id")
	assert.NotEqual(t, first.ID, other.ID)
}

func TestRegisterUserEmptyPassword(t *testing.T) {
	repo := &stubRegistry{users: &stubUsersRepo{}}

	_, err := webcore.RegisterUser(context.Background(), repo, webcore.RegisterUserInput{
		Email: "jane@example.com",
		Role:  webcore.RoleMember,
	})
	require.Error(t, err)
	assert.Nil(t, repo.users.created)
}
