package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/config"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services"
)

// Claims are the claims carried by CRM access tokens. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Team  string `json:"team,omitempty"`
}

// ParsedClaims represents validated claims. Team is informational only; the
// authoritative team is always read from the user record.
type ParsedClaims struct {
	UserID    uuid.UUID
	Email     string
	Team      models.Team
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs HS256 access tokens
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer from the auth configuration
func NewIssuer(cfg config.AuthConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.JWTTTL,
		now:    time.Now,
	}
}

// Issue mints a token for user and returns it with its expiry
func (i *Issuer) Issue(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("cannot issue a token without a user")
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
		Team:  user.Team.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validator verifies HS256 access tokens
type Validator struct {
	secret []byte
	parser *jwt.Parser
}

// NewValidator creates a Validator from the auth configuration
func NewValidator(cfg config.AuthConfig) *Validator {
	return newValidator(cfg, time.Now)
}

func newValidator(cfg config.AuthConfig, now func() time.Time) *Validator {
	return &Validator{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.JWTIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}
}

// ValidateToken verifies signature, issuer and lifetime and returns the parsed claims.
// Failures are services.ErrTokenExpired or services.ErrInvalidToken.
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*ParsedClaims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.ErrTokenExpired
		}
		return nil, services.ErrInvalidToken.Wrap(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, services.ErrInvalidToken.Wrap(fmt.Errorf("invalid subject: %w", err))
	}

	parsed := &ParsedClaims{
		UserID: userID,
		Email:  claims.Email,
	}
	if team, err := models.ParseTeam(claims.Team); err == nil {
		parsed.Team = team
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}
