package webcore

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists rotation records for issued refresh tokens.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	// Consume marks the record for jti as used. It fails with
	// ErrRefreshReused when the record was already consumed and with
	// ErrRefreshInvalid when it is unknown, revoked, or expired.
	Consume(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(r *RefreshToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RefreshToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_id"
		},
	})

	return &refreshTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *refreshTokens) CreateTx(ctx context.Context, tx bun.IDB, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *refreshTokens) Create(ctx context.Context, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *refreshTokens) Consume(ctx context.Context, jti string) error {
	now := time.Now()

	// Single conditional UPDATE keeps consumption atomic: only one caller can
	// flip used_at from NULL.
	res, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("used_at = ?", now).
		Where("token_id = ?", jti).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// The update matched nothing, figure out why so replay gets its own error.
	record := &RefreshToken{}
	err = r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token_id = ?", jti).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrRefreshInvalid
		}
		return err
	}

	if record.UsedAt != nil {
		return ErrRefreshReused
	}

	return ErrRefreshInvalid
}

func (r *refreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		Exec(ctx)
	return err
}

func (r *refreshTokens) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
