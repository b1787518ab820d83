// Package auth verifies the bearer tokens issued to retail users and turns
// them into request-scoped actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims carries the identity a token was issued for
type Claims struct {
	jwt.RegisteredClaims
	UserID     string   `json:"user_id"`
	BusinessID string   `json:"business_id"`
	ShopID     string   `json:"shop_id,omitempty"`
	Role       string   `json:"role"`
	Grants     []string `json:"grants,omitempty"`
}

// IssueInput describes the identity to put in a token
type IssueInput struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	ShopID     *uuid.UUID
	Role       identity.Role
	Grants     []identity.Capability
}

// JWTService signs and verifies HS256 access tokens
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
		now:        time.Now,
	}
}

// Issue signs an access token. Tokens normally come from the identity
// provider; Issue serves local tooling and tests.
func (s *JWTService) Issue(in IssueInput) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   in.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:     in.UserID.String(),
		BusinessID: in.BusinessID.String(),
		Role:       string(in.Role),
	}
	if in.ShopID != nil {
		claims.ShopID = in.ShopID.String()
	}
	for _, g := range in.Grants {
		claims.Grants = append(claims.Grants, string(g))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, issuer and validity window of tokenString
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Actor resolves the claims into an actor with its role capabilities
func (c *Claims) Actor() (identity.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	businessID, err := uuid.Parse(c.BusinessID)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: business_id", ErrInvalidClaims)
	}
	var shopID *uuid.UUID
	if c.ShopID != "" {
		id, err := uuid.Parse(c.ShopID)
		if err != nil {
			return identity.Actor{}, fmt.Errorf("%w: shop_id", ErrInvalidClaims)
		}
		shopID = &id
	}
	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: role", ErrInvalidClaims)
	}
	grants := make([]identity.Capability, len(c.Grants))
	for i, g := range c.Grants {
		grants[i] = identity.Capability(g)
	}
	actor, err := identity.NewActor(userID, businessID, shopID, role, grants...)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
	return actor, nil
}
