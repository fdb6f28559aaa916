package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerReminderRoutes(
	api fiber.Router,
	h *handler.ReminderHandler,
	authRequired fiber.Handler,
	tenantCtx fiber.Handler,
	requirePerm permFunc,
) {
	reminders := api.Group("/reminders", authRequired, tenantCtx)
	reminders.Get("/", requirePerm(authorize.ResourceReminder, authorize.ActionRead), h.List)
	reminders.Post("/", requirePerm(authorize.ResourceReminder, authorize.ActionCreate), h.Create)
	reminders.Get("/:id", requirePerm(authorize.ResourceReminder, authorize.ActionRead), h.Get)
	reminders.Patch("/:id", requirePerm(authorize.ResourceReminder, authorize.ActionUpdate), h.Update)
	reminders.Delete("/:id", requirePerm(authorize.ResourceReminder, authorize.ActionDelete), h.Delete)

	settings := api.Group("/reminder-settings", authRequired, tenantCtx)
	settings.Get("/", requirePerm(authorize.ResourceReminderSetting, authorize.ActionRead), h.GetSetting)
	settings.Patch("/", requirePerm(authorize.ResourceReminderSetting, authorize.ActionUpdate), h.UpdateSetting)
}
