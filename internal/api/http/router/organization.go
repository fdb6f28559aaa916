package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerOrganizationRoutes(
	api fiber.Router,
	h *handler.OrganizationHandler,
	authRequired fiber.Handler,
	tenantCtx fiber.Handler,
	superAdmin fiber.Handler,
	requirePerm permFunc,
) {
	orgs := api.Group("/organizations", authRequired)

	// Platform management
	orgs.Get("/", superAdmin, h.List)
	orgs.Post("/", superAdmin, h.Create)
	orgs.Post("/:id/activate", superAdmin, h.SetActive(true))
	orgs.Post("/:id/deactivate", superAdmin, h.SetActive(false))

	orgs.Get("/:id", tenantCtx, requirePerm(authorize.ResourceOrganization, authorize.ActionRead), h.Get)
	orgs.Patch("/:id", tenantCtx, requirePerm(authorize.ResourceOrganization, authorize.ActionUpdate), h.Update)
}
