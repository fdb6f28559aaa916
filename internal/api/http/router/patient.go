package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

func (r *Router) registerPatientRoutes(
	patients fiber.Router,
	ph *handler.PatientHandler,
	sh *handler.SummaryHandler,
	dh *handler.DocumentHandler,
	requirePerm permFunc,
) {
	// Patient CRUD
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), ph.Create)

	p := patients.Group("/:id")
	p.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.Get)
	p.Patch("/", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), ph.Update)
	p.Delete("/", requirePerm(authorize.ResourcePatient, authorize.ActionDelete), ph.Delete)

	// Summary
	p.Get("/summary", requirePerm(authorize.ResourcePatientSummary, authorize.ActionRead), sh.Get)
	p.Put("/summary", requirePerm(authorize.ResourcePatientSummary, authorize.ActionUpdate), sh.Upsert)
	p.Get("/summary/history", requirePerm(authorize.ResourcePatientSummary, authorize.ActionRead), sh.History)

	// Documents
	p.Get("/documents", requirePerm(authorize.ResourcePatientDocument, authorize.ActionRead), dh.List)
	p.Post("/documents", requirePerm(authorize.ResourcePatientDocument, authorize.ActionCreate), dh.Upload)
	p.Get("/documents/:docID/download", requirePerm(authorize.ResourcePatientDocument, authorize.ActionRead), dh.Download)
	p.Delete("/documents/:docID", requirePerm(authorize.ResourcePatientDocument, authorize.ActionDelete), dh.Delete)
}
