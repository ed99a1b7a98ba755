package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
)

type Role string

const (
	RoleCustomer Role = "user"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSeller:
		return RoleSeller
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

// Principal is the authenticated caller as asserted by the identity
// collaborator. Role claims are trusted as given.
type Principal struct {
	UserID string
	Role   Role
	Name   string
	Email  string
	Phone  string
}

func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != ""
}

// Require fails with an authorization error unless p is authenticated and,
// when roles are given, holds one of them.
func (p *Principal) Require(roles ...Role) error {
	if !p.Authenticated() {
		return apperror.Authorization("authentication required")
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperror.Authorization("role %q is not allowed to perform this operation", p.Role)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal or nil for anonymous callers.
func FromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(ctxKey{}).(*Principal); ok {
		return p
	}
	return nil
}

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
	HeaderName   = "X-User-Name"
	HeaderEmail  = "X-User-Email"
	HeaderPhone  = "X-User-Phone"
)

// Middleware reads the identity headers set by the upstream gateway. Requests
// without X-User-ID continue anonymously.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		p := &Principal{
			UserID: userID,
			Role:   ParseRole(r.Header.Get(HeaderRole)),
			Name:   r.Header.Get(HeaderName),
			Email:  r.Header.Get(HeaderEmail),
			Phone:  r.Header.Get(HeaderPhone),
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
