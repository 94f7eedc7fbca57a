package webcore

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserInput carries the fields needed to provision an account.
type RegisterUserInput struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	Password  string   `json:"password"`

	// DeterministicID derives the user id from the email so repeated
	// provisioning runs converge on the same record.
	DeterministicID bool
}

// RegisterUser hashes the password and creates the account inside a
// transaction. An existing account with the same identifier is returned as
// is, which makes the call safe to run at boot for seeding.
func RegisterUser(ctx context.Context, repo RepositoryManager, input RegisterUserInput) (*User, error) {
	user := &User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Role:      input.Role,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(input.Password)
		if err != nil {
			var richErr *errors.Error
			if errors.As(err, &richErr) {
				return errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
		}
		user.PasswordHash = hash

		if input.DeterministicID {
			if id, err := hashid.NewUUID(input.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = repo.Users().GetOrCreateTx(ctx, tx, user); err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
