// Package auth provides bearer-token verification helpers.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"routekit/internal/config"
)

// Verifier validates bearer tokens and extracts tenant/role claims.
// Supports modes: dev (tenant:role, no signature) and hmac (HS256 JWT).
type Verifier struct {
	Mode        string
	HMACSecret  []byte
	TenantClaim string
	RoleClaim   string
	parser      *jwt.Parser
}

type Principal struct {
	Tenant string
	Role   string
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnsupported  = errors.New("unsupported auth mode")
)

func NewVerifier(cfg config.AuthConfig) *Verifier {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "dev"
	}
	return &Verifier{
		Mode:        mode,
		HMACSecret:  []byte(cfg.HMACSecret),
		TenantClaim: orDefault(cfg.TenantClaim, "tenant"),
		RoleClaim:   orDefault(cfg.RoleClaim, "role"),
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func (v *Verifier) Verify(token string) (Principal, error) {
	switch v.Mode {
	case "dev":
		tenant, role, ok := strings.Cut(token, ":")
		if !ok || tenant == "" {
			return Principal{}, fmt.Errorf("%w: expected tenant:role", ErrInvalidToken)
		}
		return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
	case "hmac":
		if len(v.HMACSecret) == 0 {
			return Principal{}, fmt.Errorf("%w: hmac secret not configured", ErrUnsupported)
		}
		claims := jwt.MapClaims{}
		_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return v.HMACSecret, nil })
		if err != nil {
			return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		tenant, _ := claims[v.TenantClaim].(string)
		role, _ := claims[v.RoleClaim].(string)
		if tenant == "" {
			return Principal{}, fmt.Errorf("%w: missing tenant claim", ErrInvalidToken)
		}
		if role == "" {
			role = "user"
		}
		return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
	}
	return Principal{}, fmt.Errorf("%w: %s", ErrUnsupported, v.Mode)
}
