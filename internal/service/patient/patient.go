package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/crypto"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
)

// Patient is the API view of a patient with the insurance number decrypted.
type Patient struct {
	schema.Patient
	InsuranceNumber string `json:"insurance_number"`
}

type ListRequest struct {
	page.Request
	FacilityID      *uuid.UUID
	Search          string
	IncludeInactive bool
}

type CreateRequest struct {
	FacilityID      *uuid.UUID
	Name            string
	NameKana        string
	BirthDate       *time.Time
	Gender          string
	Address         string
	Phone           string
	RoomNumber      string
	InsuranceNumber string
	Notes           string
}

// UpdateRequest fields are applied when non-nil. ClearFacility unsets the
// facility and wins over FacilityID.
type UpdateRequest struct {
	FacilityID      *uuid.UUID
	ClearFacility   bool
	Name            *string
	NameKana        *string
	BirthDate       *time.Time
	Gender          *string
	Address         *string
	Phone           *string
	RoomNumber      *string
	InsuranceNumber *string
	Notes           *string
	IsActive        *bool
}

type Service interface {
	List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[Patient], error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Patient, error)
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*Patient, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*Patient, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
}

type patientService struct {
	db     *gorm.DB
	cipher *crypto.FieldCipher
	phones *phone.Normalizer
	now    func() time.Time
}

func New(db *gorm.DB, cipher *crypto.FieldCipher, phones *phone.Normalizer) Service {
	return &patientService{db: db, cipher: cipher, phones: phones, now: time.Now}
}

func (s *patientService) List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[Patient], error) {
	q := scope.Apply(s.db.Model(&schema.Patient{}), "patients.organization_id")
	if !req.IncludeInactive {
		q = q.Where("patients.is_active = ?", true)
	}
	if req.FacilityID != nil {
		q = q.Where("patients.facility_id = ?", *req.FacilityID)
	}
	if req.Search != "" {
		like := page.Like(req.Search)
		q = q.Where("patients.name ILIKE ? OR patients.name_kana ILIKE ?", like, like)
	}

	rows, err := page.Find[schema.Patient](ctx, q, req.Request, "patients.name_kana ASC, patients.name ASC")
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	if err := s.attachFacilities(ctx, rows.Data); err != nil {
		return nil, err
	}

	out := &page.Result[Patient]{
		Data:       make([]Patient, 0, len(rows.Data)),
		Total:      rows.Total,
		Page:       rows.Page,
		PerPage:    rows.PerPage,
		TotalPages: rows.TotalPages,
	}
	for i := range rows.Data {
		v, err := s.view(&rows.Data[i])
		if err != nil {
			return nil, err
		}
		out.Data = append(out.Data, *v)
	}
	return out, nil
}

func (s *patientService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Patient, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return s.view(p)
}

func (s *patientService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*Patient, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}

	p := &schema.Patient{
		FacilityID: req.FacilityID,
		Name:       strings.TrimSpace(req.Name),
		NameKana:   strings.TrimSpace(req.NameKana),
		BirthDate:  req.BirthDate,
		Gender:     schema.Gender(req.Gender),
		Address:    strings.TrimSpace(req.Address),
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		Notes:      req.Notes,
	}
	p.OrganizationID = orgID
	p.IsActive = true

	if p.Name == "" {
		return nil, ErrNameRequired
	}
	if p.Gender == "" {
		p.Gender = schema.GenderUnknown
	}
	if !p.Gender.IsValid() {
		return nil, ErrInvalidGender
	}
	if p.BirthDate != nil && p.BirthDate.After(s.now()) {
		return nil, ErrInvalidBirthDate
	}
	if p.Phone, err = s.phones.Normalize(req.Phone); err != nil {
		return nil, ErrInvalidPhone
	}
	if p.InsuranceNumberEnc, err = s.cipher.Seal(strings.TrimSpace(req.InsuranceNumber)); err != nil {
		return nil, fmt.Errorf("encrypt insurance number: %w", err)
	}
	if p.FacilityID != nil {
		if err := s.checkFacility(ctx, orgID, *p.FacilityID); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &Patient{Patient: *p, InsuranceNumber: strings.TrimSpace(req.InsuranceNumber)}, nil
}

func (s *patientService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	switch {
	case req.ClearFacility:
		updates["facility_id"] = nil
	case req.FacilityID != nil:
		if err := s.checkFacility(ctx, p.OrganizationID, *req.FacilityID); err != nil {
			return nil, err
		}
		updates["facility_id"] = *req.FacilityID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if req.NameKana != nil {
		updates["name_kana"] = strings.TrimSpace(*req.NameKana)
	}
	if req.BirthDate != nil {
		if req.BirthDate.After(s.now()) {
			return nil, ErrInvalidBirthDate
		}
		updates["birth_date"] = *req.BirthDate
	}
	if req.Gender != nil {
		g := schema.Gender(*req.Gender)
		if !g.IsValid() {
			return nil, ErrInvalidGender
		}
		updates["gender"] = g
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		ph, err := s.phones.Normalize(*req.Phone)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		updates["phone"] = ph
	}
	if req.RoomNumber != nil {
		updates["room_number"] = strings.TrimSpace(*req.RoomNumber)
	}
	if req.InsuranceNumber != nil {
		enc, err := s.cipher.Seal(strings.TrimSpace(*req.InsuranceNumber))
		if err != nil {
			return nil, fmt.Errorf("encrypt insurance number: %w", err)
		}
		updates["insurance_number_enc"] = enc
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&schema.Patient{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update patient: %w", err)
		}
		if p, err = s.find(ctx, scope, id); err != nil {
			return nil, err
		}
	}
	return s.view(p)
}

func (s *patientService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	res := scope.Apply(s.db.WithContext(ctx).Model(&schema.Patient{}), "").
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *patientService) find(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Patient, error) {
	var p schema.Patient
	err := scope.Apply(s.db.WithContext(ctx), "patients.organization_id").
		Preload("Facility").
		First(&p, "patients.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (s *patientService) attachFacilities(ctx context.Context, patients []schema.Patient) error {
	ids := lo.Uniq(lo.FilterMap(patients, func(p schema.Patient, _ int) (uuid.UUID, bool) {
		if p.FacilityID == nil {
			return uuid.Nil, false
		}
		return *p.FacilityID, true
	}))
	if len(ids) == 0 {
		return nil
	}

	var facilities []schema.Facility
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&facilities).Error; err != nil {
		return fmt.Errorf("load facilities: %w", err)
	}
	byID := lo.KeyBy(facilities, func(f schema.Facility) uuid.UUID { return f.ID })
	for i := range patients {
		if patients[i].FacilityID == nil {
			continue
		}
		if f, ok := byID[*patients[i].FacilityID]; ok {
			patients[i].Facility = &f
		}
	}
	return nil
}

func (s *patientService) checkFacility(ctx context.Context, orgID, facilityID uuid.UUID) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&schema.Facility{}).
		Where("id = ? AND organization_id = ? AND is_active = ?", facilityID, orgID, true).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check facility: %w", err)
	}
	if n == 0 {
		return ErrFacilityNotFound
	}
	return nil
}

func (s *patientService) view(p *schema.Patient) (*Patient, error) {
	ins, err := s.cipher.Open(p.InsuranceNumberEnc)
	if err != nil {
		return nil, fmt.Errorf("decrypt insurance number: %w", err)
	}
	return &Patient{Patient: *p, InsuranceNumber: ins}, nil
}
