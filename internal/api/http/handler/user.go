package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrEmailExists):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrSuperAdminOnly):
		return forbidden(c, err.Error())
	case errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrNameRequired),
		errors.Is(err, user.ErrPasswordTooShort),
		errors.Is(err, user.ErrSelfDeactivation),
		errors.Is(err, user.ErrSelfRoleChange),
		errors.Is(err, user.ErrOrganizationRequired):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/users
func (h *UserHandler) List(c fiber.Ctx) error {
	var q struct {
		pageQuery
		Role            string `query:"role"`
		Active          *bool  `query:"active"`
		IncludeInactive bool   `query:"include_inactive"`
		Search          string `query:"search"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	res, err := h.svc.List(c.Context(), scopeOf(c), user.ListRequest{
		Request:         q.request(),
		Role:            q.Role,
		Active:          q.Active,
		IncludeInactive: q.IncludeInactive,
		Search:          q.Search,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, res)
}

// GET /api/v1/users/:id
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	u, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, u)
}

// POST /api/v1/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		Role           string `json:"role"`
		OrganizationID string `json:"organization_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	orgID, err := optionalID(body.OrganizationID)
	if err != nil {
		return badRequest(c, "invalid organization_id")
	}

	u, err := h.svc.Create(c.Context(), scopeOf(c), user.CreateRequest{
		Name:           body.Name,
		Email:          body.Email,
		Password:       body.Password,
		Role:           body.Role,
		OrganizationID: orgID,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return created(c, u)
}

// PATCH /api/v1/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	var body struct {
		Name     *string `json:"name"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	u, err := h.svc.Update(c.Context(), scopeOf(c), id, user.UpdateRequest{
		Name:     body.Name,
		Role:     body.Role,
		IsActive: body.IsActive,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, u)
}

// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	if err := h.svc.Delete(c.Context(), scopeOf(c), id); err != nil {
		return mapUserError(c, err)
	}
	return noContent(c)
}

// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.svc.ResetPassword(c.Context(), scopeOf(c), id, body.Password); err != nil {
		return mapUserError(c, err)
	}
	return noContent(c)
}
