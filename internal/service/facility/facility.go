package facility

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
)

type ListRequest struct {
	page.Request
	Search          string
	IncludeInactive bool
}

type CreateRequest struct {
	Name    string
	Address string
	Phone   string
	Notes   string
}

type UpdateRequest struct {
	Name     *string
	Address  *string
	Phone    *string
	Notes    *string
	IsActive *bool
}

type Service interface {
	List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.Facility], error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Facility, error)
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.Facility, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Facility, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
}

type facilityService struct {
	db     *gorm.DB
	phones *phone.Normalizer
}

func New(db *gorm.DB, phones *phone.Normalizer) Service {
	return &facilityService{db: db, phones: phones}
}

func (s *facilityService) List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.Facility], error) {
	q := scope.Apply(s.db.Model(&schema.Facility{}), "")
	if !req.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if req.Search != "" {
		like := page.Like(req.Search)
		q = q.Where("name ILIKE ? OR address ILIKE ?", like, like)
	}
	res, err := page.Find[schema.Facility](ctx, q, req.Request, "name ASC")
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return res, nil
}

func (s *facilityService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Facility, error) {
	var f schema.Facility
	if err := scope.Apply(s.db.WithContext(ctx), "").First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("get facility: %w", err)
	}
	return &f, nil
}

func (s *facilityService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.Facility, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}

	f := &schema.Facility{
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Notes:   req.Notes,
	}
	f.OrganizationID = orgID
	f.IsActive = true
	if f.Name == "" {
		return nil, ErrNameRequired
	}
	if f.Phone, err = s.phones.Normalize(req.Phone); err != nil {
		return nil, ErrInvalidPhone
	}

	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, fmt.Errorf("create facility: %w", err)
	}
	return f, nil
}

func (s *facilityService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Facility, error) {
	f, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		p, err := s.phones.Normalize(*req.Phone)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		updates["phone"] = p
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return f, nil
	}

	if err := s.db.WithContext(ctx).Model(f).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update facility: %w", err)
	}
	return s.Get(ctx, scope, id)
}

// Delete hides the facility. Patients keep their facility_id.
func (s *facilityService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	res := scope.Apply(s.db.WithContext(ctx).Model(&schema.Facility{}), "").
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete facility: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFacilityNotFound
	}
	return nil
}
