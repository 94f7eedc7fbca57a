package webcore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and validates the access/refresh token pair.
type TokenService interface {
	IssueAccessToken(identity Identity) (string, time.Time, error)
	IssueRefreshToken(identity Identity) (string, time.Time, string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateRefresh(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// IssueAccessToken creates a short lived JWT carrying the principal claims
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, time.Time, error) {
	claims := ts.newClaims(identity, TokenUseAccess, ts.accessTTL)
	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.Expires(), nil
}

// IssueRefreshToken creates a long lived JWT used only to mint new access
// tokens. The jti is returned so callers can persist a rotation record.
func (ts *TokenServiceImpl) IssueRefreshToken(identity Identity) (string, time.Time, string, error) {
	claims := ts.newClaims(identity, TokenUseRefresh, ts.refreshTTL)
	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, "", err
	}
	return token, claims.Expires(), claims.TokenID(), nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims.
// Expiry wins over every other failure mode so clients get a clean 401 they
// can answer with a refresh attempt.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenUseAccess)
}

// ValidateRefresh parses and validates a refresh token
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, TokenUseRefresh)
}

func (ts *TokenServiceImpl) validate(tokenString, use string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrUnableToDecodeSession
	}

	if claims.Use() != use {
		return nil, ErrTokenWrongUse
	}

	return claims, nil
}

func (ts *TokenServiceImpl) newClaims(identity Identity, use string, ttl time.Duration) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserEmail: identity.Email(),
		UserName:  identity.Name(),
		UserRole:  identity.Role(),
		TokenUse:  use,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

// ensureTokenID assigns a jti when the claims carry none. Refresh rotation
// depends on every refresh token having a unique id.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
