// Package auth issues and validates the API's bearer tokens and hashes
// credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/config"
	"github.com/joaobarbosa/cinema-api/models"
)

var (
	// ErrTokenExpired is returned when the token's exp is in the past
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature is returned when the HMAC does not verify
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrMalformedToken is returned when the token cannot be decoded
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidToken covers every other rejection: wrong issuer or algorithm, missing claims
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the validated content of a token
type Claims struct {
	Subject   string
	UserID    uuid.UUID
	Role      models.UserRole
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// TokenService signs and verifies HS256 tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a TokenService
type Option func(*TokenService)

// WithClock replaces time.Now as the source of issue and validation time.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service
func NewTokenService(secret, issuer string, ttl time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTokenServiceFromConfig creates a token service from the JWT settings
func NewTokenServiceFromConfig(cfg config.JWTConfig, opts ...Option) *TokenService {
	return NewTokenService(cfg.Secret, cfg.Issuer, cfg.Expiration, opts...)
}

// TTL is the validity window of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for user. The subject is the username.
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: user.ID.String(),
		Role:   string(user.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature, issuer and expiry of token and returns its claims
func (s *TokenService) Validate(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	parsed := &tokenClaims{}
	_, err := parser.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if parsed.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	userID, err := uuid.Parse(parsed.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid uid", ErrInvalidToken)
	}
	role, ok := models.ParseRole(parsed.Role)
	if !ok {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidToken, parsed.Role)
	}

	claims := &Claims{
		Subject:   parsed.Subject,
		UserID:    userID,
		Role:      role,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}
