package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/lo"

	"github.com/Alijeyrad/carevisit_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
	loc *time.Location
}

func NewPatientHandler(svc patient.Service, loc *time.Location) *PatientHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PatientHandler{svc: svc, loc: loc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrNameRequired),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, patient.ErrInvalidPhone),
		errors.Is(err, patient.ErrInvalidBirthDate),
		errors.Is(err, patient.ErrFacilityNotFound):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

type patientBody struct {
	FacilityID      *string `json:"facility_id"`
	ClearFacility   bool    `json:"clear_facility"`
	Name            *string `json:"name"`
	NameKana        *string `json:"name_kana"`
	BirthDate       *string `json:"birth_date"`
	Gender          *string `json:"gender"`
	Address         *string `json:"address"`
	Phone           *string `json:"phone"`
	RoomNumber      *string `json:"room_number"`
	InsuranceNumber *string `json:"insurance_number"`
	Notes           *string `json:"notes"`
	IsActive        *bool   `json:"is_active"`
}

func (b patientBody) birthDate(loc *time.Location) (*time.Time, error) {
	if b.BirthDate == nil || *b.BirthDate == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, *b.BirthDate, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GET /api/v1/patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	var q struct {
		pageQuery
		FacilityID      string `query:"facility_id"`
		Search          string `query:"search"`
		IncludeInactive bool   `query:"include_inactive"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	facilityID, err := optionalID(q.FacilityID)
	if err != nil {
		return badRequest(c, "invalid facility_id")
	}

	res, err := h.svc.List(c.Context(), scopeOf(c), patient.ListRequest{
		Request:         q.request(),
		FacilityID:      facilityID,
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, res)
}

// GET /api/v1/patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	p, err := h.svc.Get(c.Context(), scopeOf(c), id)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// POST /api/v1/patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	birth, err := body.birthDate(h.loc)
	if err != nil {
		return badRequest(c, "birth_date must be YYYY-MM-DD")
	}
	fid, err := optionalID(lo.FromPtr(body.FacilityID))
	if err != nil {
		return badRequest(c, "invalid facility_id")
	}

	p, err := h.svc.Create(c.Context(), scopeOf(c), patient.CreateRequest{
		FacilityID:      fid,
		Name:            lo.FromPtr(body.Name),
		NameKana:        lo.FromPtr(body.NameKana),
		BirthDate:       birth,
		Gender:          lo.FromPtr(body.Gender),
		Address:         lo.FromPtr(body.Address),
		Phone:           lo.FromPtr(body.Phone),
		RoomNumber:      lo.FromPtr(body.RoomNumber),
		InsuranceNumber: lo.FromPtr(body.InsuranceNumber),
		Notes:           lo.FromPtr(body.Notes),
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, p)
}

// PATCH /api/v1/patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	birth, err := body.birthDate(h.loc)
	if err != nil {
		return badRequest(c, "birth_date must be YYYY-MM-DD")
	}
	fid, err := optionalID(lo.FromPtr(body.FacilityID))
	if err != nil {
		return badRequest(c, "invalid facility_id")
	}

	p, err := h.svc.Update(c.Context(), scopeOf(c), id, patient.UpdateRequest{
		FacilityID:      fid,
		ClearFacility:   body.ClearFacility,
		Name:            body.Name,
		NameKana:        body.NameKana,
		BirthDate:       birth,
		Gender:          body.Gender,
		Address:         body.Address,
		Phone:           body.Phone,
		RoomNumber:      body.RoomNumber,
		InsuranceNumber: body.InsuranceNumber,
		Notes:           body.Notes,
		IsActive:        body.IsActive,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// DELETE /api/v1/patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	if err := h.svc.Delete(c.Context(), scopeOf(c), id); err != nil {
		return mapPatientError(c, err)
	}
	return noContent(c)
}
