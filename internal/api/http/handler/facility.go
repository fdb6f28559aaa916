package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/facility"
)

type FacilityHandler struct {
	svc facility.Service
}

func NewFacilityHandler(svc facility.Service) *FacilityHandler {
	return &FacilityHandler{svc: svc}
}

func mapFacilityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, facility.ErrFacilityNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, facility.ErrNameRequired),
		errors.Is(err, facility.ErrInvalidPhone):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/facilities
func (h *FacilityHandler) List(c fiber.Ctx) error {
	var q struct {
		pageQuery
		Search          string `query:"search"`
		IncludeInactive bool   `query:"include_inactive"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	res, err := h.svc.List(c.Context(), scopeOf(c), facility.ListRequest{
		Request:         q.request(),
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		return mapFacilityError(c, err)
	}
	return ok(c, res)
}

// GET /api/v1/facilities/:id
func (h *FacilityHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid facility id")
	}
	f, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapFacilityError(c, err)
	}
	return ok(c, f)
}

// POST /api/v1/facilities
func (h *FacilityHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
		Notes   string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.Create(c.Context(), scopeOf(c), facility.CreateRequest{
		Name:    body.Name,
		Address: body.Address,
		Phone:   body.Phone,
		Notes:   body.Notes,
	})
	if err != nil {
		return mapFacilityError(c, err)
	}
	return created(c, f)
}

// PATCH /api/v1/facilities/:id
func (h *FacilityHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid facility id")
	}
	var body struct {
		Name     *string `json:"name"`
		Address  *string `json:"address"`
		Phone    *string `json:"phone"`
		Notes    *string `json:"notes"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.Update(c.Context(), scopeOf(c), id, facility.UpdateRequest{
		Name:     body.Name,
		Address:  body.Address,
		Phone:    body.Phone,
		Notes:    body.Notes,
		IsActive: body.IsActive,
	})
	if err != nil {
		return mapFacilityError(c, err)
	}
	return ok(c, f)
}

// DELETE /api/v1/facilities/:id
func (h *FacilityHandler) Delete(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid facility id")
	}
	if err := h.svc.Delete(c.Context(), scopeOf(c), id); err != nil {
		return mapFacilityError(c, err)
	}
	return noContent(c)
}
