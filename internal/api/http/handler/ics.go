package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/icsfeed"
	"github.com/Alijeyrad/carevisit_backend/pkg/ical"
)

type IcsHandler struct {
	svc icsfeed.Service
}

func NewIcsHandler(svc icsfeed.Service) *IcsHandler {
	return &IcsHandler{svc: svc}
}

func mapIcsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, icsfeed.ErrTokenNotFound),
		errors.Is(err, icsfeed.ErrFeedNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, icsfeed.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, icsfeed.ErrInvalidKind),
		errors.Is(err, icsfeed.ErrLabelTooLong):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/ics-tokens
func (h *IcsHandler) List(c fiber.Ctx) error {
	tokens, err := h.svc.List(c.Context(), scopeOf(c))
	if err != nil {
		return mapIcsError(c, err)
	}
	return ok(c, tokens)
}

// POST /api/v1/ics-tokens
// The plain token is only ever returned here.
func (h *IcsHandler) Create(c fiber.Ctx) error {
	var body struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.svc.Create(c.Context(), scopeOf(c), icsfeed.CreateRequest{
		Kind:  schema.IcsTokenKind(body.Kind),
		Label: body.Label,
	})
	if err != nil {
		return mapIcsError(c, err)
	}
	return created(c, res)
}

// DELETE /api/v1/ics-tokens/:id
func (h *IcsHandler) Revoke(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid token id")
	}
	if err := h.svc.Revoke(c.Context(), scopeOf(c), id); err != nil {
		return mapIcsError(c, err)
	}
	return noContent(c)
}

// GET /api/ics/organization/:token and /api/ics/personal/:token (public)
func (h *IcsHandler) Feed(kind schema.IcsTokenKind) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := strings.TrimSuffix(c.Params("token"), ".ics")
		if token == "" {
			return notFound(c, icsfeed.ErrFeedNotFound.Error())
		}
		body, err := h.svc.Feed(c.Context(), kind, token)
		if err != nil {
			return mapIcsError(c, err)
		}
		c.Set(fiber.HeaderContentType, ical.ContentType)
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		return c.SendString(body)
	}
}
