package webcore

import (
	"context"
	"reflect"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	refreshRepo  RefreshTokens
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, refreshRepo RefreshTokens, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetAccessTokenTTL(),
		opts.GetRefreshTokenTTL(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		refreshRepo:  refreshRepo,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service, mostly used in tests
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and mints a fresh token pair. The refresh token's
// jti is persisted so it can be rotated exactly once.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, Principal, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, Principal{}, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, Principal{}, ErrIdentityNotFound
	}

	pair, err := s.issuePair(ctx, identity)
	if err != nil {
		return nil, Principal{}, err
	}

	principal := Principal{
		ID:    identity.ID(),
		Email: identity.Email(),
		Name:  identity.Name(),
		Role:  identity.Role(),
	}

	return pair, principal, nil
}

// Refresh validates a refresh token, consumes its rotation record, and mints a
// replacement pair. A token that was already consumed is treated as replay:
// every active refresh token for that user is revoked before we bail.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, Principal, error) {
	claims, err := s.tokenService.ValidateRefresh(refreshToken)
	if err != nil {
		s.logger.Error("Refresh token validation failed", "error", err)
		return nil, Principal{}, err
	}

	if err := s.refreshRepo.Consume(ctx, claims.TokenID()); err != nil {
		if IsRefreshReused(err) {
			s.logger.Warn("Refresh token replay detected, revoking token family", "user_id", claims.UserID())
			if revokeErr := s.RevokeRefreshTokens(ctx, claims.UserID()); revokeErr != nil {
				s.logger.Error("Failed to revoke refresh tokens after replay", "error", revokeErr)
			}
		}
		return nil, Principal{}, err
	}

	identity := claimsIdentity{claims: claims}
	pair, err := s.issuePair(ctx, identity)
	if err != nil {
		return nil, Principal{}, err
	}

	principal, err := PrincipalFromClaims(claims)
	if err != nil {
		return nil, Principal{}, err
	}

	return pair, principal, nil
}

// RevokeRefreshTokens invalidates every active refresh token for the user.
// Called on logout and on refresh replay.
func (s *Auther) RevokeRefreshTokens(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrRefreshInvalid
	}
	return s.refreshRepo.RevokeAllForUser(ctx, uid)
}

// PrincipalFromToken validates an access token and projects its claims
func (s *Auther) PrincipalFromToken(raw string) (Principal, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("PrincipalFromToken validation failed", "error", err)
		return Principal{}, err
	}

	return PrincipalFromClaims(claims)
}

func (s *Auther) issuePair(ctx context.Context, identity Identity) (*TokenPair, error) {
	access, accessExp, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		s.logger.Error("Failed to issue access token", "error", err)
		return nil, err
	}

	refresh, refreshExp, jti, err := s.tokenService.IssueRefreshToken(identity)
	if err != nil {
		s.logger.Error("Failed to issue refresh token", "error", err)
		return nil, err
	}

	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	record := &RefreshToken{
		TokenID:   jti,
		UserID:    uid,
		ExpiresAt: &refreshExp,
	}
	if _, err := s.refreshRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to persist refresh rotation record", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

var _ Authenticator = (*Auther)(nil)

// IsRefreshReused checks whether the error marks a replayed refresh token
func IsRefreshReused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRefreshReused)
}

// nowPtr is a tiny helper used by repositories when stamping timestamps
func nowPtr() *time.Time {
	n := time.Now()
	return &n
}
