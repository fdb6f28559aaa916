package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// SubjectFromContext extracts the GroupSubject (user ID) from the request principal or claims.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	if p := reqctx.PrincipalFromContext(ctx); p != nil && p.UserID != uuid.Nil {
		return GroupSubject(p.UserID.String()), nil
	}
	if uid, ok := reqctx.UserIDFromContext(ctx); ok && uid != uuid.Nil {
		return GroupSubject(uid.String()), nil
	}
	return "", ErrNoSubjectInContext
}

// DomainForOrganization returns org:<id>, or sys when there is no organization.
func DomainForOrganization(orgID *uuid.UUID) Domain {
	if orgID == nil || *orgID == uuid.Nil {
		return DomainSys
	}
	return OrgDomain(orgID.String())
}
