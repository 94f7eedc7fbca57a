package webcore

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultSessionTTL bounds how long an idle session record survives.
var DefaultSessionTTL = 24 * time.Hour

// Sessions persists server side session records, keyed by the sid cookie.
type Sessions interface {
	Get(ctx context.Context, sid string) (*SessionRecord, error)
	Put(ctx context.Context, record *SessionRecord) error
	SetCSRFToken(ctx context.Context, sid, token string, ttl time.Duration) error
	CSRFToken(ctx context.Context, sid string) (string, error)
	AttachUser(ctx context.Context, sid string, userID uuid.UUID) error
	Delete(ctx context.Context, sid string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (s *sessions) Get(ctx context.Context, sid string) (*SessionRecord, error) {
	record := &SessionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", sid).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"session_id": sid})
		}
		return nil, err
	}
	return record, nil
}

func (s *sessions) Put(ctx context.Context, record *SessionRecord) error {
	if record.ExpiresAt == nil {
		exp := time.Now().Add(DefaultSessionTTL)
		record.ExpiresAt = &exp
	}
	record.UpdatedAt = nowPtr()

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("csrf_token = EXCLUDED.csrf_token").
		Set("user_id = EXCLUDED.user_id").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *sessions) SetCSRFToken(ctx context.Context, sid, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	exp := time.Now().Add(ttl)

	record := &SessionRecord{
		ID:        sid,
		CSRFToken: token,
		ExpiresAt: &exp,
	}
	return s.Put(ctx, record)
}

func (s *sessions) CSRFToken(ctx context.Context, sid string) (string, error) {
	record, err := s.Get(ctx, sid)
	if err != nil {
		return "", err
	}
	return record.CSRFToken, nil
}

func (s *sessions) AttachUser(ctx context.Context, sid string, userID uuid.UUID) error {
	_, err := s.db.NewUpdate().
		Model((*SessionRecord)(nil)).
		Set("user_id = ?", userID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sid).
		Exec(ctx)
	return err
}

func (s *sessions) Delete(ctx context.Context, sid string) error {
	_, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("id = ?", sid).
		Exec(ctx)
	return err
}

func (s *sessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SessionCSRFStorage adapts the sessions repository to the csrf middleware
// Storage interface, which is context free by design.
type SessionCSRFStorage struct {
	repo    Sessions
	timeout time.Duration
}

func NewSessionCSRFStorage(repo Sessions) *SessionCSRFStorage {
	return &SessionCSRFStorage{
		repo:    repo,
		timeout: 5 * time.Second,
	}
}

func (s *SessionCSRFStorage) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.CSRFToken(ctx, key)
}

func (s *SessionCSRFStorage) Set(key string, value string, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.SetCSRFToken(ctx, key, value, expiration)
}

func (s *SessionCSRFStorage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.Delete(ctx, key)
}
