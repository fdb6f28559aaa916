package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/Alijeyrad/carevisit_backend/pkg/paseto"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
)

const LocalsPrincipal = "auth.principal"

// Authenticator is implemented by the auth service.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*reqctx.Principal, *pasetotoken.Claims, error)
}

// AuthRequired validates a Bearer PASETO access token against its session and
// the user's current state. On success the claims are stored in
// c.Locals(pasetotoken.CtxKeyClaims) and the principal in both Locals and the
// request context.
func AuthRequired(authn Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		tok, ok := pasetotoken.BearerToken(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		p, claims, err := authn.Authenticate(c.Context(), tok)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.Locals(LocalsPrincipal, p)
		ctx := reqctx.WithPrincipal(c.Context(), p)
		c.SetContext(reqctx.WithClaims(ctx, claims))
		return c.Next()
	}
}

// PrincipalFromFiber returns the principal set by AuthRequired.
func PrincipalFromFiber(c fiber.Ctx) (*reqctx.Principal, bool) {
	p, ok := c.Locals(LocalsPrincipal).(*reqctx.Principal)
	return p, ok && p != nil
}

// RequireSuperAdmin rejects everyone but super admins.
func RequireSuperAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		p, ok := PrincipalFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !p.IsSuperAdmin() {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
