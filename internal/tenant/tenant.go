// Package tenant resolves which organization a request acts on and applies
// the matching filter to queries.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrOrganizationRequired = errors.New("organization required")
	ErrForeignOrganization  = errors.New("organization not accessible")
)

// Scope is the resolved tenant of one request.
// OrganizationID is nil only for a super admin who selected no organization.
type Scope struct {
	Principal      *reqctx.Principal
	OrganizationID *uuid.UUID
}

// CurrentOrganization resolves the acting organization. Super admins act on
// whatever they request (possibly nothing); everyone else is pinned to their
// own organization and may not request another one.
func CurrentOrganization(p *reqctx.Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if p.IsSuperAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return nil, nil
		}
		id := *requested
		return &id, nil
	}
	if p.OrganizationID == nil {
		return nil, ErrOrganizationRequired
	}
	if requested != nil && *requested != uuid.Nil && *requested != *p.OrganizationID {
		return nil, ErrForeignOrganization
	}
	id := *p.OrganizationID
	return &id, nil
}

// Resolve builds the Scope for p.
func Resolve(p *reqctx.Principal, requested *uuid.UUID) (Scope, error) {
	org, err := CurrentOrganization(p, requested)
	if err != nil {
		return Scope{}, err
	}
	return Scope{Principal: p, OrganizationID: org}, nil
}

// RequireOrganization returns the organization or ErrOrganizationRequired.
func (s Scope) RequireOrganization() (uuid.UUID, error) {
	if s.OrganizationID == nil {
		return uuid.Nil, ErrOrganizationRequired
	}
	return *s.OrganizationID, nil
}

// Unrestricted reports whether queries run across every organization.
func (s Scope) Unrestricted() bool {
	return s.OrganizationID == nil && s.Principal.IsSuperAdmin()
}

// Allows reports whether a row owned by orgID is visible in this scope.
func (s Scope) Allows(orgID uuid.UUID) bool {
	if s.Unrestricted() {
		return true
	}
	return s.OrganizationID != nil && *s.OrganizationID == orgID
}

// Apply filters q to the scope's organization. column is the qualified
// organization column, e.g. "events.organization_id"; empty means "organization_id".
func (s Scope) Apply(q *gorm.DB, column string) *gorm.DB {
	if s.Unrestricted() {
		return q
	}
	if column == "" {
		column = "organization_id"
	}
	if s.OrganizationID == nil {
		// not reachable through Resolve; keep the query empty rather than global
		return q.Where("1 = 0")
	}
	return q.Where(column+" = ?", *s.OrganizationID)
}

// Filter adapts Apply for gorm's Scopes.
func (s Scope) Filter(column string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return s.Apply(q, column) }
}

type ctxKey struct{}

func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the scope stored by the HTTP middleware.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(ctxKey{}).(Scope)
	if !ok {
		return Scope{}, ErrUnauthenticated
	}
	return s, nil
}
