// Package auth issues and verifies the signed bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of tokens issued at login.
const DefaultTTL = time.Hour

// Claims carries the registered claims plus UserID, which mirrors Subject
// under the "userId" key for clients that read it directly.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Revoker is a deny-list of token ids.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenManager signs and verifies HMAC JWTs with a process-wide secret.
// It is safe for concurrent use.
type TokenManager struct {
	secret  []byte
	method  jwt.SigningMethod
	ttl     time.Duration
	now     func() time.Time
	revoker Revoker
}

type Option func(*TokenManager)

// WithClock replaces time.Now for issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) { m.now = now }
}

// WithRevoker enables the deny-list. Tokens then carry a jti claim.
func WithRevoker(r Revoker) Option {
	return func(m *TokenManager) { m.revoker = r }
}

// SigningMethod resolves a JWT_ALG value. Only HMAC algorithms are accepted
// because the key is a shared secret.
func SigningMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
}

func NewTokenManager(secret []byte, alg string, ttl time.Duration, opts ...Option) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty token secret")
	}
	method, err := SigningMethod(alg)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m := &TokenManager{
		secret: append([]byte(nil), secret...),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime used by IssueAccessToken.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// RevocationEnabled reports whether Revoke can succeed.
func (m *TokenManager) RevocationEnabled() bool {
	return m.revoker != nil
}

// IssueAccessToken issues a token for subjectID with the configured TTL.
func (m *TokenManager) IssueAccessToken(subjectID string) (string, error) {
	return m.Issue(subjectID, m.ttl)
}

// Issue signs a token for subjectID valid for ttl from now. Zero and negative
// ttl values produce tokens that are already expired.
func (m *TokenManager) Issue(subjectID string, ttl time.Duration) (string, error) {
	now := m.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: subjectID,
	}
	if m.revoker != nil {
		claims.ID = uuid.NewString()
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Verify validates signature, algorithm and expiry of tokenString.
//
// Every ordinary rejection wraps common.ErrInvalidToken. Any other error
// means verification could not be completed (the deny-list is unreachable).
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", common.ErrInvalidToken)
		}
	}

	return claims, nil
}

// Revoke puts the token id on the deny-list until the token expires.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoker == nil {
		return common.ErrRevocationDisabled
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: token has no id", common.ErrInvalidToken)
	}

	until := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return m.revoker.Revoke(ctx, claims.ID, until)
}
