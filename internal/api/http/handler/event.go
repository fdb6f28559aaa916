package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
)

type EventHandler struct {
	svc event.Service
	loc *time.Location
}

func NewEventHandler(svc event.Service, loc *time.Location) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{svc: svc, loc: loc}
}

func mapEventError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, event.ErrEventNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, event.ErrTargetRequired),
		errors.Is(err, event.ErrInvalidType),
		errors.Is(err, event.ErrStartRequired),
		errors.Is(err, event.ErrInvalidTimeRange),
		errors.Is(err, event.ErrInvalidRange),
		errors.Is(err, event.ErrPatientNotFound),
		errors.Is(err, event.ErrFacilityNotFound),
		errors.Is(err, event.ErrAssigneeNotFound),
		errors.Is(err, event.ErrInvalidRecurrence),
		errors.Is(err, event.ErrTooManyOccurrences),
		errors.Is(err, event.ErrNoSourceEvents),
		errors.Is(err, event.ErrNoOccurrences):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// recurrenceBody mirrors event.Recurrence with until as a plain date.
type recurrenceBody struct {
	Unit     string `json:"unit"`
	Interval int    `json:"interval"`
	Count    int    `json:"count"`
	Until    string `json:"until"`
	Offsets  []int  `json:"offsets"`
}

func (r recurrenceBody) recurrence(loc *time.Location) (event.Recurrence, error) {
	rec := event.Recurrence{
		Unit:     event.Unit(r.Unit),
		Interval: r.Interval,
		Count:    r.Count,
		Offsets:  r.Offsets,
	}
	if r.Until != "" {
		until, err := parseTime(r.Until, loc)
		if err != nil {
			return rec, errors.New("until must be YYYY-MM-DD")
		}
		rec.Until = &until
	}
	return rec, nil
}

func (h *EventHandler) listRequest(c fiber.Ctx) (event.ListRequest, error) {
	from, to, err := parseRange(c, h.loc)
	if err != nil {
		return event.ListRequest{}, err
	}
	req := event.ListRequest{
		From:            from,
		To:              to,
		Type:            c.Query("type"),
		IncludeInactive: c.Query("include_inactive") == "true",
	}
	if req.PatientID, err = optionalID(c.Query("patient_id")); err != nil {
		return req, errors.New("invalid patient_id")
	}
	if req.FacilityID, err = optionalID(c.Query("facility_id")); err != nil {
		return req, errors.New("invalid facility_id")
	}
	if req.AssigneeID, err = optionalID(c.Query("assignee_id")); err != nil {
		return req, errors.New("invalid assignee_id")
	}
	return req, nil
}

// GET /api/v1/events?from&to
func (h *EventHandler) List(c fiber.Ctx) error {
	req, err := h.listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	events, err := h.svc.List(c.Context(), scopeOf(c), req)
	if err != nil {
		return mapEventError(c, err)
	}
	return ok(c, events)
}

// GET /api/v1/events/calendar?from&to
// Same filters as List, grouped by facility and day.
func (h *EventHandler) Calendar(c fiber.Ctx) error {
	req, err := h.listRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	items, err := h.svc.Calendar(c.Context(), scopeOf(c), req)
	if err != nil {
		return mapEventError(c, err)
	}
	return ok(c, items)
}

// GET /api/v1/events/:id
func (h *EventHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid event id")
	}
	e, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapEventError(c, err)
	}
	return ok(c, e)
}

// POST /api/v1/events
// Returns the base event followed by any generated occurrences.
func (h *EventHandler) Create(c fiber.Ctx) error {
	var body struct {
		PatientID  string          `json:"patient_id"`
		FacilityID string          `json:"facility_id"`
		AssigneeID string          `json:"assignee_id"`
		Title      string          `json:"title"`
		Type       string          `json:"type"`
		StartAt    string          `json:"start_at"`
		EndAt      string          `json:"end_at"`
		AllDay     bool            `json:"all_day"`
		Notes      string          `json:"notes"`
		Recurrence *recurrenceBody `json:"recurrence"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := event.CreateRequest{
		Title:  body.Title,
		Type:   body.Type,
		AllDay: body.AllDay,
		Notes:  body.Notes,
	}
	var err error
	if req.PatientID, err = optionalID(body.PatientID); err != nil {
		return badRequest(c, "invalid patient_id")
	}
	if req.FacilityID, err = optionalID(body.FacilityID); err != nil {
		return badRequest(c, "invalid facility_id")
	}
	if req.AssigneeID, err = optionalID(body.AssigneeID); err != nil {
		return badRequest(c, "invalid assignee_id")
	}
	if body.StartAt != "" {
		if req.StartAt, err = parseTime(body.StartAt, h.loc); err != nil {
			return badRequest(c, "invalid start_at")
		}
	}
	if body.EndAt != "" {
		end, err := parseTime(body.EndAt, h.loc)
		if err != nil {
			return badRequest(c, "invalid end_at")
		}
		req.EndAt = &end
	}
	if body.Recurrence != nil {
		rec, err := body.Recurrence.recurrence(h.loc)
		if err != nil {
			return badRequest(c, err.Error())
		}
		req.Recurrence = &rec
	}

	events, err := h.svc.Create(c.Context(), scopeOf(c), req)
	if err != nil {
		return mapEventError(c, err)
	}
	return created(c, events)
}

// POST /api/v1/events/bulk-copy
func (h *EventHandler) BulkCopy(c fiber.Ctx) error {
	var body struct {
		EventIDs   []string       `json:"event_ids"`
		Recurrence recurrenceBody `json:"recurrence"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ids := make([]uuid.UUID, 0, len(body.EventIDs))
	for _, raw := range lo.Uniq(body.EventIDs) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid event id "+raw)
		}
		ids = append(ids, id)
	}
	rec, err := body.Recurrence.recurrence(h.loc)
	if err != nil {
		return badRequest(c, err.Error())
	}

	events, err := h.svc.BulkCopy(c.Context(), scopeOf(c), event.BulkCopyRequest{
		EventIDs:   ids,
		Recurrence: rec,
	})
	if err != nil {
		return mapEventError(c, err)
	}
	return created(c, events)
}

// PATCH /api/v1/events/:id
func (h *EventHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid event id")
	}
	var body struct {
		PatientID     *string `json:"patient_id"`
		ClearPatient  bool    `json:"clear_patient"`
		FacilityID    *string `json:"facility_id"`
		ClearFacility bool    `json:"clear_facility"`
		AssigneeID    *string `json:"assignee_id"`
		ClearAssignee bool    `json:"clear_assignee"`
		Title         *string `json:"title"`
		Type          *string `json:"type"`
		StartAt       *string `json:"start_at"`
		EndAt         *string `json:"end_at"`
		AllDay        *bool   `json:"all_day"`
		Notes         *string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := event.UpdateRequest{
		ClearPatient:  body.ClearPatient,
		ClearFacility: body.ClearFacility,
		ClearAssignee: body.ClearAssignee,
		Title:         body.Title,
		Type:          body.Type,
		AllDay:        body.AllDay,
		Notes:         body.Notes,
	}
	var err error
	if req.PatientID, err = optionalID(lo.FromPtr(body.PatientID)); err != nil {
		return badRequest(c, "invalid patient_id")
	}
	if req.FacilityID, err = optionalID(lo.FromPtr(body.FacilityID)); err != nil {
		return badRequest(c, "invalid facility_id")
	}
	if req.AssigneeID, err = optionalID(lo.FromPtr(body.AssigneeID)); err != nil {
		return badRequest(c, "invalid assignee_id")
	}
	if body.StartAt != nil {
		start, err := parseTime(*body.StartAt, h.loc)
		if err != nil {
			return badRequest(c, "invalid start_at")
		}
		req.StartAt = &start
	}
	if body.EndAt != nil {
		end, err := parseTime(*body.EndAt, h.loc)
		if err != nil {
			return badRequest(c, "invalid end_at")
		}
		req.EndAt = &end
	}

	e, err := h.svc.Update(c.Context(), scopeOf(c), id, req)
	if err != nil {
		return mapEventError(c, err)
	}
	return ok(c, e)
}

// DELETE /api/v1/events/:id?scope=series
func (h *EventHandler) Delete(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid event id")
	}
	n, err := h.svc.Delete(c.Context(), scopeOf(c), id, c.Query("scope") == "series")
	if err != nil {
		return mapEventError(c, err)
	}
	return ok(c, fiber.Map{"deleted": n})
}
