package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

// RequirePermission checks the principal's casbin roles in the domain of the
// resolved tenant scope (set by Tenant). Super admins pass without a lookup.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		scope, err := tenant.FromContext(c.Context())
		if err != nil || scope.Principal == nil {
			return fiber.ErrUnauthorized
		}
		if scope.Principal.IsSuperAdmin() {
			return c.Next()
		}

		domain := authorize.DomainForOrganization(scope.OrganizationID)
		subject := authorize.GroupSubject(scope.Principal.UserID.String())
		if err := auth.MustEnforce(c.Context(), subject, domain, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
