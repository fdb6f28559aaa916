package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerEventRoutes(events fiber.Router, h *handler.EventHandler, requirePerm permFunc) {
	events.Get("/", requirePerm(authorize.ResourceEvent, authorize.ActionRead), h.List)
	events.Get("/calendar", requirePerm(authorize.ResourceEvent, authorize.ActionRead), h.Calendar)
	events.Post("/", requirePerm(authorize.ResourceEvent, authorize.ActionCreate), h.Create)
	events.Post("/bulk-copy", requirePerm(authorize.ResourceEvent, authorize.ActionCreate), h.BulkCopy)
	events.Get("/:id", requirePerm(authorize.ResourceEvent, authorize.ActionRead), h.Get)
	events.Patch("/:id", requirePerm(authorize.ResourceEvent, authorize.ActionUpdate), h.Update)
	events.Delete("/:id", requirePerm(authorize.ResourceEvent, authorize.ActionDelete), h.Delete)
}
