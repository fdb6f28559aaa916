package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerIcsRoutes(app *fiber.App, tokens fiber.Router, h *handler.IcsHandler, requirePerm permFunc) {
	tokens.Get("/", requirePerm(authorize.ResourceIcsToken, authorize.ActionRead), h.List)
	tokens.Post("/", requirePerm(authorize.ResourceIcsToken, authorize.ActionCreate), h.Create)
	tokens.Delete("/:id", requirePerm(authorize.ResourceIcsToken, authorize.ActionDelete), h.Revoke)

	// Public: the token is the credential.
	feeds := app.Group("/api/ics")
	feeds.Get("/organization/:token", h.Feed(schema.IcsTokenOrganization))
	feeds.Get("/personal/:token", h.Feed(schema.IcsTokenPersonal))
}
