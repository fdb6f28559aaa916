package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerFacilityRoutes(facilities fiber.Router, h *handler.FacilityHandler, requirePerm permFunc) {
	facilities.Get("/", requirePerm(authorize.ResourceFacility, authorize.ActionRead), h.List)
	facilities.Post("/", requirePerm(authorize.ResourceFacility, authorize.ActionCreate), h.Create)
	facilities.Get("/:id", requirePerm(authorize.ResourceFacility, authorize.ActionRead), h.Get)
	facilities.Patch("/:id", requirePerm(authorize.ResourceFacility, authorize.ActionUpdate), h.Update)
	facilities.Delete("/:id", requirePerm(authorize.ResourceFacility, authorize.ActionDelete), h.Delete)
}
