package token

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/inkpost/internal/auth/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
)

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
	parser     *jwt.Parser
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration, clk clock.Clock) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, domain.ErrMissingSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Issuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

func (i *Issuer) Issue(accountID snowflake.ID, tokenType string) (string, error) {
	ttl := i.accessTTL
	if tokenType == domain.TokenTypeRefresh {
		ttl = i.refreshTTL
	}

	now := i.clock.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates signature and expiry. wantType may be empty to accept any
// token type.
func (i *Issuer) Parse(raw string, wantType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := i.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.Join(domain.ErrInvalidToken, err)
	}
	if claims.TokenType != domain.TokenTypeAccess && claims.TokenType != domain.TokenTypeRefresh {
		return nil, domain.ErrInvalidToken
	}
	if wantType != "" && claims.TokenType != wantType {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (c *Claims) AccountID() (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Subject)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}
