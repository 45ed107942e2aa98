package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/domain"
)

// Token purposes carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const issuer = "doctor-appointment-backend"

// Claims are the JWT claims of both token kinds. Role is empty on refresh
// tokens; an unknown role fails decoding.
type Claims struct {
	Role domain.Role `json:"role,omitempty"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

// AccountID is the token subject.
func (c *Claims) AccountID() string {
	return c.Subject
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// TokenService issues and verifies HMAC-signed access and refresh tokens.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService accepts HS256, HS384 or HS512.
func NewTokenService(secret, algorithm string, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenService, error) {
	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}

	s := &TokenService{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// IssueAccess signs an access token for accountID carrying its role.
func (s *TokenService) IssueAccess(accountID string, role domain.Role) (string, error) {
	now := s.now().UTC()
	claims := &Claims{
		Role: role,
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefresh signs a refresh token and returns it with its expiry. The
// random jti keeps two tokens issued in the same second distinct.
func (s *TokenService) IssueRefresh(accountID string) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.refreshTTL)
	claims := &Claims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. It returns TOKEN_EXPIRED
// for an otherwise valid token past its expiry and TOKEN_INVALID for
// anything else. The token type is not checked here.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired()
	default:
		return nil, domain.ErrTokenInvalid()
	}
	if claims.Subject == "" {
		return nil, domain.ErrTokenInvalid()
	}
	return claims, nil
}

// HashToken is the form a refresh token is stored and looked up in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
