package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
)

const dateLayout = "2006-01-02"

// scopeOf returns the tenant scope resolved by middleware.Tenant.
func scopeOf(c fiber.Ctx) tenant.Scope {
	s, _ := tenant.FromContext(c.Context())
	return s
}

// mapCommonError is the fallback of every mapXError: tenant errors get their
// status, anything else is a 500.
func mapCommonError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tenant.ErrOrganizationRequired):
		return badRequest(c, "X-Organization-ID is required for this operation")
	case errors.Is(err, tenant.ErrForeignOrganization):
		return forbidden(c, err.Error())
	case errors.Is(err, tenant.ErrUnauthenticated):
		return unauthorized(c, err.Error())
	default:
		return internalError(c, err)
	}
}

func paramID(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// optionalID parses an optional uuid; empty input yields nil.
func optionalID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type pageQuery struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

func (q pageQuery) request() page.Request {
	return page.Request{Page: q.Page, PerPage: q.PerPage}
}

// parseTime accepts RFC 3339 timestamps and plain dates, which mean local
// midnight in loc.
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, loc)
}

// parseRange reads from/to query parameters. A plain to date is inclusive.
func parseRange(c fiber.Ctx, loc *time.Location) (time.Time, time.Time, error) {
	fromRaw, toRaw := c.Query("from"), c.Query("to")
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, errors.New("from and to are required")
	}
	from, err := parseTime(fromRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from")
	}
	to, err := parseTime(toRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to")
	}
	if len(strings.TrimSpace(toRaw)) == len(dateLayout) {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}
