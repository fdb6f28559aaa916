package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
)

const (
	HeaderOrganizationID = "X-Organization-ID"
	QueryOrganizationID  = "organization_id"
)

// Tenant resolves the acting organization after AuthRequired. Super admins
// pick one with the X-Organization-ID header or the organization_id query
// parameter; everyone else is pinned to their own and may only repeat it.
func Tenant() fiber.Handler {
	return func(c fiber.Ctx) error {
		p, ok := PrincipalFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		raw := strings.TrimSpace(c.Get(HeaderOrganizationID))
		if raw == "" {
			raw = strings.TrimSpace(c.Query(QueryOrganizationID))
		}
		var requested *uuid.UUID
		if raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid organization id")
			}
			requested = &id
		}

		scope, err := tenant.Resolve(p, requested)
		switch {
		case errors.Is(err, tenant.ErrUnauthenticated):
			return fiber.ErrUnauthorized
		case errors.Is(err, tenant.ErrForeignOrganization), errors.Is(err, tenant.ErrOrganizationRequired):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		case err != nil:
			return err
		}

		c.SetContext(tenant.WithScope(c.Context(), scope))
		return c.Next()
	}
}
