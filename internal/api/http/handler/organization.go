package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/organization"
)

type OrganizationHandler struct {
	svc organization.Service
}

func NewOrganizationHandler(svc organization.Service) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

func mapOrganizationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, organization.ErrOrganizationNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, organization.ErrAccessDenied):
		return forbidden(c, err.Error())
	case errors.Is(err, organization.ErrCodeExists),
		errors.Is(err, organization.ErrEmailExists):
		return conflict(c, err.Error())
	case errors.Is(err, organization.ErrNameRequired),
		errors.Is(err, organization.ErrInvalidCode),
		errors.Is(err, organization.ErrInvalidEmail),
		errors.Is(err, organization.ErrInvalidPhone),
		errors.Is(err, organization.ErrAdminRequired),
		errors.Is(err, organization.ErrPasswordTooShort):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/organizations (super admin)
func (h *OrganizationHandler) List(c fiber.Ctx) error {
	var q struct {
		pageQuery
		Search          string `query:"search"`
		IncludeInactive bool   `query:"include_inactive"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	res, err := h.svc.List(c.Context(), organization.ListRequest{
		Request:         q.request(),
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		return mapOrganizationError(c, err)
	}
	return ok(c, res)
}

// POST /api/v1/organizations (super admin)
func (h *OrganizationHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name    string `json:"name"`
		Code    string `json:"code"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Admin   struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"admin"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.Create(c.Context(), organization.CreateRequest{
		Name:    body.Name,
		Code:    body.Code,
		Address: body.Address,
		Phone:   body.Phone,
		Email:   body.Email,
		Admin: organization.AdminRequest{
			Name:     body.Admin.Name,
			Email:    body.Admin.Email,
			Password: body.Admin.Password,
		},
	})
	if err != nil {
		return mapOrganizationError(c, err)
	}
	return created(c, res)
}

// GET /api/v1/organizations/:id
func (h *OrganizationHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid organization id")
	}
	org, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapOrganizationError(c, err)
	}
	return ok(c, org)
}

// PATCH /api/v1/organizations/:id
func (h *OrganizationHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid organization id")
	}
	var body struct {
		Name    *string `json:"name"`
		Code    *string `json:"code"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	org, err := h.svc.Update(c.Context(), scopeOf(c), id, organization.UpdateRequest{
		Name:    body.Name,
		Code:    body.Code,
		Address: body.Address,
		Phone:   body.Phone,
		Email:   body.Email,
	})
	if err != nil {
		return mapOrganizationError(c, err)
	}
	return ok(c, org)
}

// POST /api/v1/organizations/:id/activate and /deactivate (super admin)
func (h *OrganizationHandler) SetActive(active bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, valid := paramID(c, "id")
		if !valid {
			return badRequest(c, "invalid organization id")
		}
		org, err := h.svc.SetActive(c.Context(), id, active)
		if err != nil {
			return mapOrganizationError(c, err)
		}
		return ok(c, org)
	}
}
