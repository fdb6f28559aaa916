package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerExportRoutes(exports fiber.Router, h *handler.ExportHandler, requirePerm permFunc) {
	exports.Get("/schedule.pdf", requirePerm(authorize.ResourceExport, authorize.ActionRead), h.Schedule)
	exports.Get("/patients/:id/summary.pdf", requirePerm(authorize.ResourceExport, authorize.ActionRead), h.PatientSummary)
}
