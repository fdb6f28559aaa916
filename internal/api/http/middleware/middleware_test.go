package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/carevisit_backend/pkg/paseto"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
)

type fakeAuthenticator struct {
	token     string
	principal *reqctx.Principal
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, tok string) (*reqctx.Principal, *pasetotoken.Claims, error) {
	if tok != f.token {
		return nil, nil, errors.New("invalid token")
	}
	return f.principal, &pasetotoken.Claims{}, nil
}

func staffPrincipal(org uuid.UUID) *reqctx.Principal {
	return &reqctx.Principal{UserID: uuid.New(), OrganizationID: &org, Role: "staff"}
}

func superPrincipal() *reqctx.Principal {
	return &reqctx.Principal{UserID: uuid.New(), Role: "super_admin"}
}

// newApp mounts AuthRequired and Tenant in front of a handler that echoes the
// resolved organization.
func newApp(p *reqctx.Principal, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	authn := &fakeAuthenticator{token: "good", principal: p}
	app.Use(AuthRequired(authn))
	app.Use(Tenant())
	for _, h := range extra {
		app.Use(h)
	}
	app.Get("/t", func(c fiber.Ctx) error {
		scope, err := tenant.FromContext(c.Context())
		if err != nil {
			return err
		}
		if scope.OrganizationID == nil {
			return c.SendString("none")
		}
		return c.SendString(scope.OrganizationID.String())
	})
	return app
}

func do(t *testing.T, app *fiber.App, target string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthRequired(t *testing.T) {
	org := uuid.New()
	app := newApp(staffPrincipal(org))

	t.Run("missing header", func(t *testing.T) {
		status, _ := do(t, app, "/t", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("wrong token", func(t *testing.T) {
		status, _ := do(t, app, "/t", map[string]string{"Authorization": "Bearer nope"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("valid token", func(t *testing.T) {
		status, body := do(t, app, "/t", map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, org.String(), body)
	})
}

func TestTenant(t *testing.T) {
	org := uuid.New()
	auth := map[string]string{"Authorization": "Bearer good"}

	t.Run("member may repeat own organization", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer good", HeaderOrganizationID: org.String()}
		status, body := do(t, newApp(staffPrincipal(org)), "/t", h)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, org.String(), body)
	})

	t.Run("member cannot pick another organization", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer good", HeaderOrganizationID: uuid.NewString()}
		status, _ := do(t, newApp(staffPrincipal(org)), "/t", h)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("invalid id", func(t *testing.T) {
		h := map[string]string{"Authorization": "Bearer good", HeaderOrganizationID: "not-a-uuid"}
		status, _ := do(t, newApp(staffPrincipal(org)), "/t", h)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("super admin without selection", func(t *testing.T) {
		status, body := do(t, newApp(superPrincipal()), "/t", auth)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "none", body)
	})

	t.Run("super admin selects by query", func(t *testing.T) {
		status, body := do(t, newApp(superPrincipal()), "/t?organization_id="+org.String(), auth)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, org.String(), body)
	})
}

func TestRequirePermission(t *testing.T) {
	org := uuid.New()
	auth := map[string]string{"Authorization": "Bearer good"}

	t.Run("denied", func(t *testing.T) {
		authz := &testutil.FakeAuthz{Deny: true}
		app := newApp(staffPrincipal(org), RequirePermission(authz, authorize.ResourcePatient, authorize.ActionRead))
		status, _ := do(t, app, "/t", auth)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("allowed", func(t *testing.T) {
		authz := &testutil.FakeAuthz{}
		app := newApp(staffPrincipal(org), RequirePermission(authz, authorize.ResourcePatient, authorize.ActionRead))
		status, _ := do(t, app, "/t", auth)
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("super admin bypasses casbin", func(t *testing.T) {
		authz := &testutil.FakeAuthz{Deny: true}
		app := newApp(superPrincipal(), RequirePermission(authz, authorize.ResourceOrganization, authorize.ActionUpdate))
		status, _ := do(t, app, "/t", auth)
		assert.Equal(t, fiber.StatusOK, status)
	})
}

func TestRequireSuperAdmin(t *testing.T) {
	app := fiber.New()
	authn := &fakeAuthenticator{token: "good", principal: staffPrincipal(uuid.New())}
	app.Use(AuthRequired(authn))
	app.Use(RequireSuperAdmin())
	app.Get("/s", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	status, _ := do(t, app, "/s", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, fiber.StatusForbidden, status)
}
