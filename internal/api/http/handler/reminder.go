package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/lo"

	"github.com/Alijeyrad/carevisit_backend/internal/service/reminder"
)

type ReminderHandler struct {
	svc reminder.Service
	loc *time.Location
}

func NewReminderHandler(svc reminder.Service, loc *time.Location) *ReminderHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderHandler{svc: svc, loc: loc}
}

func mapReminderError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, reminder.ErrReminderNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, reminder.ErrAlreadySent):
		return conflict(c, err.Error())
	case errors.Is(err, reminder.ErrTitleRequired),
		errors.Is(err, reminder.ErrRemindAtRequired),
		errors.Is(err, reminder.ErrInvalidStatus),
		errors.Is(err, reminder.ErrInvalidLead),
		errors.Is(err, reminder.ErrPatientNotFound),
		errors.Is(err, reminder.ErrEventNotFound),
		errors.Is(err, reminder.ErrRecipientNotFound):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/reminders?status=pending|sent|all
func (h *ReminderHandler) List(c fiber.Ctx) error {
	var q struct {
		pageQuery
		Status    string `query:"status"`
		PatientID string `query:"patient_id"`
		EventID   string `query:"event_id"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	req := reminder.ListRequest{Request: q.request(), Status: reminder.Status(q.Status)}
	var err error
	if req.PatientID, err = optionalID(q.PatientID); err != nil {
		return badRequest(c, "invalid patient_id")
	}
	if req.EventID, err = optionalID(q.EventID); err != nil {
		return badRequest(c, "invalid event_id")
	}

	res, err := h.svc.List(c.Context(), scopeOf(c), req)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, res)
}

// GET /api/v1/reminders/:id
func (h *ReminderHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid reminder id")
	}
	r, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, r)
}

type reminderBody struct {
	PatientID      *string `json:"patient_id"`
	ClearPatient   bool    `json:"clear_patient"`
	EventID        *string `json:"event_id"`
	ClearEvent     bool    `json:"clear_event"`
	UserID         *string `json:"user_id"`
	ClearRecipient bool    `json:"clear_user"`
	Title          *string `json:"title"`
	Message        *string `json:"message"`
	RemindAt       *string `json:"remind_at"`
}

// POST /api/v1/reminders
func (h *ReminderHandler) Create(c fiber.Ctx) error {
	var body reminderBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := reminder.CreateRequest{
		Title:   lo.FromPtr(body.Title),
		Message: lo.FromPtr(body.Message),
	}
	var err error
	if req.PatientID, err = optionalID(lo.FromPtr(body.PatientID)); err != nil {
		return badRequest(c, "invalid patient_id")
	}
	if req.EventID, err = optionalID(lo.FromPtr(body.EventID)); err != nil {
		return badRequest(c, "invalid event_id")
	}
	if req.UserID, err = optionalID(lo.FromPtr(body.UserID)); err != nil {
		return badRequest(c, "invalid user_id")
	}
	if body.RemindAt != nil && *body.RemindAt != "" {
		if req.RemindAt, err = parseTime(*body.RemindAt, h.loc); err != nil {
			return badRequest(c, "invalid remind_at")
		}
	}

	r, err := h.svc.Create(c.Context(), scopeOf(c), req)
	if err != nil {
		return mapReminderError(c, err)
	}
	return created(c, r)
}

// PATCH /api/v1/reminders/:id
func (h *ReminderHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid reminder id")
	}
	var body reminderBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := reminder.UpdateRequest{
		ClearPatient:   body.ClearPatient,
		ClearEvent:     body.ClearEvent,
		ClearRecipient: body.ClearRecipient,
		Title:          body.Title,
		Message:        body.Message,
	}
	var err error
	if req.PatientID, err = optionalID(lo.FromPtr(body.PatientID)); err != nil {
		return badRequest(c, "invalid patient_id")
	}
	if req.EventID, err = optionalID(lo.FromPtr(body.EventID)); err != nil {
		return badRequest(c, "invalid event_id")
	}
	if req.UserID, err = optionalID(lo.FromPtr(body.UserID)); err != nil {
		return badRequest(c, "invalid user_id")
	}
	if body.RemindAt != nil {
		at, err := parseTime(*body.RemindAt, h.loc)
		if err != nil {
			return badRequest(c, "invalid remind_at")
		}
		req.RemindAt = &at
	}

	r, err := h.svc.Update(c.Context(), scopeOf(c), id, req)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, r)
}

// DELETE /api/v1/reminders/:id
func (h *ReminderHandler) Delete(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid reminder id")
	}
	if err := h.svc.Delete(c.Context(), scopeOf(c), id); err != nil {
		return mapReminderError(c, err)
	}
	return noContent(c)
}

// GET /api/v1/reminder-settings
func (h *ReminderHandler) GetSetting(c fiber.Ctx) error {
	s, err := h.svc.GetSetting(c.Context(), scopeOf(c))
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, s)
}

// PATCH /api/v1/reminder-settings
func (h *ReminderHandler) UpdateSetting(c fiber.Ctx) error {
	var body struct {
		Enabled     *bool `json:"enabled"`
		LeadMinutes *int  `json:"lead_minutes"`
		SendEmail   *bool `json:"send_email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.svc.UpdateSetting(c.Context(), scopeOf(c), reminder.SettingUpdate{
		Enabled:     body.Enabled,
		LeadMinutes: body.LeadMinutes,
		SendEmail:   body.SendEmail,
	})
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, s)
}
