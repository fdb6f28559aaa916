package handler

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	"github.com/Alijeyrad/carevisit_backend/internal/service/export"
	"github.com/Alijeyrad/carevisit_backend/internal/service/organization"
	"github.com/Alijeyrad/carevisit_backend/internal/service/patient"
	"github.com/Alijeyrad/carevisit_backend/pkg/pdf"
)

type ExportHandler struct {
	svc export.Service
	loc *time.Location
}

func NewExportHandler(svc export.Service, loc *time.Location) *ExportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportHandler{svc: svc, loc: loc}
}

func mapExportError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, organization.ErrOrganizationNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, event.ErrInvalidRange):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

func sendPDF(c fiber.Ctx, name string, buf *bytes.Buffer) error {
	c.Set(fiber.HeaderContentType, pdf.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

// GET /api/exports/schedule.pdf?from&to&facility_id&assignee_id
func (h *ExportHandler) Schedule(c fiber.Ctx) error {
	from, to, err := parseRange(c, h.loc)
	if err != nil {
		return badRequest(c, err.Error())
	}
	req := export.ScheduleRequest{From: from, To: to}
	if req.FacilityID, err = optionalID(c.Query("facility_id")); err != nil {
		return badRequest(c, "invalid facility_id")
	}
	if req.AssigneeID, err = optionalID(c.Query("assignee_id")); err != nil {
		return badRequest(c, "invalid assignee_id")
	}

	var buf bytes.Buffer
	if err := h.svc.Schedule(c.Context(), scopeOf(c), req, &buf); err != nil {
		return mapExportError(c, err)
	}
	name := fmt.Sprintf("schedule-%s.pdf", from.In(h.loc).Format(dateLayout))
	return sendPDF(c, name, &buf)
}

// GET /api/exports/patients/:id/summary.pdf
func (h *ExportHandler) PatientSummary(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var buf bytes.Buffer
	if err := h.svc.PatientSummary(c.Context(), scopeOf(c), id, &buf); err != nil {
		return mapExportError(c, err)
	}
	return sendPDF(c, "patient-"+id.String()+".pdf", &buf)
}
