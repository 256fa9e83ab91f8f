package auth

import (
	"errors"
	"fmt"
	"time"

	"seva-backend/internal/models"
	"seva-backend/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the only error Verify returns. Callers cannot tell an
// expired token from a forged one.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   uint   `json:"id"`
	Role     string `json:"role"`
	UserType string `json:"userType"`
	BranchID *uint  `json:"branchId"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

type Verifier interface {
	Verify(token string) (session.Session, error)
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

func (i *TokenIssuer) Issue(s session.Session) (string, time.Time, error) {
	if err := s.Validate(); err != nil {
		return "", time.Time{}, fmt.Errorf("issuing token: %w", err)
	}

	now := i.now().Truncate(time.Second)
	exp := now.Add(i.ttl)

	claims := &Claims{
		UserID:   s.UserID,
		Role:     string(s.Role),
		UserType: string(s.UserType),
		BranchID: s.BranchID,
		TenantID: s.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, exp, nil
}

func (i *TokenIssuer) Verify(raw string) (session.Session, error) {
	if raw == "" {
		return session.Session{}, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.IssuedAt == nil {
		return session.Session{}, ErrInvalidToken
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return session.Session{}, ErrInvalidToken
	}

	s := session.Session{
		UserID:    claims.UserID,
		Role:      role,
		UserType:  models.UserType(claims.UserType),
		BranchID:  claims.BranchID,
		TenantID:  claims.TenantID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, ErrInvalidToken
	}
	return s, nil
}
