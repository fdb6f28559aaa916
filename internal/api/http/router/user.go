package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(users fiber.Router, h *handler.UserHandler, requirePerm permFunc) {
	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.List)
	users.Post("/", requirePerm(authorize.ResourceUser, authorize.ActionCreate), h.Create)
	users.Get("/:id", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.Get)
	users.Patch("/:id", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), h.Update)
	users.Delete("/:id", requirePerm(authorize.ResourceUser, authorize.ActionDelete), h.Delete)
	users.Post("/:id/reset-password", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), h.ResetPassword)
}
