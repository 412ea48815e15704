// Package api implements HTTP handlers and helpers for the routekit service.
package api

import (
	"context"
	"net/http"
	"strings"
)

type Principal struct {
	Tenant string
	Role   string // admin, planner, user
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

type ctxKeyPrincipal struct{}

// getPrincipal extracts tenant and role from a bearer token or, in dev mode,
// from the X-Tenant-Id and X-Role headers.
func (s *Server) getPrincipal(r *http.Request) (Principal, bool) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		pr, err := s.Auth.Verify(tok)
		if err != nil {
			return Principal{}, false
		}
		return Principal{Tenant: pr.Tenant, Role: pr.Role}, true
	}
	if s.Auth != nil && s.Auth.Mode != "dev" {
		return Principal{}, false
	}
	tenant := r.Header.Get("X-Tenant-Id")
	role := strings.ToLower(r.Header.Get("X-Role"))
	if tenant == "" {
		tenant = "t_demo"
	}
	if role == "" {
		role = "admin"
	}
	return Principal{Tenant: tenant, Role: role}, true
}

// withPrincipal rejects unauthenticated requests and stores the principal in the context.
func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pr, ok := s.getPrincipal(r)
		if !ok {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyPrincipal{}, pr)))
	})
}

func principal(r *http.Request) Principal {
	pr, _ := r.Context().Value(ctxKeyPrincipal{}).(Principal)
	return pr
}
