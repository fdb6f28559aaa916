package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Role           string
	Email          string
	Name           string
}

// IsSuperAdmin reports whether the principal spans all organizations.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == "super_admin"
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// PrincipalFromContext returns nil when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(keyPrincipal).(*Principal)
	return p
}
