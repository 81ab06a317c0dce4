package token

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/inkpost/internal/auth/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, clk clock.Clock) *Issuer {
	t.Helper()
	issuer, err := NewIssuer([]byte("test-secret"), 0, 0, clk)
	require.NoError(t, err)
	return issuer
}

func TestIssueAndParse(t *testing.T) {
	issuer := newIssuer(t, clock.NewFakeClock(time.Now()))

	raw, err := issuer.Issue(snowflake.ID(99), domain.TokenTypeAccess)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw, domain.TokenTypeAccess)
	require.NoError(t, err)
	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(99), id)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, DefaultAccessTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseRejectsWrongType(t *testing.T) {
	issuer := newIssuer(t, clock.NewFakeClock(time.Now()))

	raw, err := issuer.Issue(snowflake.ID(1), domain.TokenTypeRefresh)
	require.NoError(t, err)

	_, err = issuer.Parse(raw, domain.TokenTypeAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = issuer.Parse(raw, "")
	assert.NoError(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	issuer := newIssuer(t, clk)

	raw, err := issuer.Issue(snowflake.ID(1), domain.TokenTypeAccess)
	require.NoError(t, err)

	clk.Advance(DefaultAccessTTL + time.Second)
	_, err = issuer.Parse(raw, domain.TokenTypeAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	other, err := NewIssuer([]byte("other-secret"), 0, 0, clk)
	require.NoError(t, err)

	raw, err := other.Issue(snowflake.ID(1), domain.TokenTypeAccess)
	require.NoError(t, err)

	_, err = newIssuer(t, clk).Parse(raw, domain.TokenTypeAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	issuer := newIssuer(t, clock.SystemClock{})
	claims := Claims{
		TokenType: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(raw, "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(nil, 0, 0, nil)
	assert.ErrorIs(t, err, domain.ErrMissingSecret)
}
