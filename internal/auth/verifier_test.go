package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routekit/internal/config"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestVerifyDev(t *testing.T) {
	v := NewVerifier(config.AuthConfig{})
	p, err := v.Verify("acme:Admin")
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "acme", Role: "admin"}, p)

	_, err = v.Verify("acme")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyHMAC(t *testing.T) {
	v := NewVerifier(config.AuthConfig{Mode: "hmac", HMACSecret: "k"})
	exp := time.Now().Add(time.Hour).Unix()

	p, err := v.Verify(sign(t, "k", jwt.MapClaims{"tenant": "acme", "role": "planner", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "acme", Role: "planner"}, p)

	p, err = v.Verify(sign(t, "k", jwt.MapClaims{"tenant": "acme", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "user", p.Role)

	_, err = v.Verify(sign(t, "other", jwt.MapClaims{"tenant": "acme", "exp": exp}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(sign(t, "k", jwt.MapClaims{"role": "admin", "exp": exp}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(sign(t, "k", jwt.MapClaims{"tenant": "acme", "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(sign(t, "k", jwt.MapClaims{"tenant": "acme"}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyUnsupportedMode(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{Mode: "jwks"}).Verify("x")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = NewVerifier(config.AuthConfig{Mode: "hmac"}).Verify("x")
	assert.ErrorIs(t, err, ErrUnsupported)
}
