package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/summary"
)

type SummaryHandler struct {
	svc summary.Service
}

func NewSummaryHandler(svc summary.Service) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

func mapSummaryError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, summary.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, summary.ErrContentTooLong):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/patients/:id/summary
func (h *SummaryHandler) Get(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	s, err := h.svc.Get(c.Context(), scopeOf(c), patientID)
	if err != nil {
		return mapSummaryError(c, err)
	}
	return ok(c, s)
}

// PUT /api/v1/patients/:id/summary
func (h *SummaryHandler) Upsert(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.svc.Upsert(c.Context(), scopeOf(c), patientID, body.Content)
	if err != nil {
		return mapSummaryError(c, err)
	}
	return ok(c, s)
}

// GET /api/v1/patients/:id/summary/history
func (h *SummaryHandler) History(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var q pageQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	res, err := h.svc.History(c.Context(), scopeOf(c), patientID, q.request())
	if err != nil {
		return mapSummaryError(c, err)
	}
	return ok(c, res)
}
