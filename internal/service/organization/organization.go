package organization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/codes"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

var reCode = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	page.Request
	Search          string
	IncludeInactive bool
}

type AdminRequest struct {
	Name     string
	Email    string
	Password string
}

type CreateRequest struct {
	Name    string
	Code    string
	Address string
	Phone   string
	Email   string
	Admin   AdminRequest
}

type UpdateRequest struct {
	Name    *string
	Code    *string
	Address *string
	Phone   *string
	Email   *string
}

type CreateResult struct {
	Organization *schema.Organization `json:"organization"`
	Admin        *schema.User         `json:"admin"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) (*page.Result[schema.Organization], error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Organization, error)
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Organization, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*schema.Organization, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type organizationService struct {
	db     *gorm.DB
	auth   authorize.IAuthorization
	hasher *password.Hasher
	phones *phone.Normalizer
}

func New(db *gorm.DB, auth authorize.IAuthorization, hasher *password.Hasher, phones *phone.Normalizer) Service {
	return &organizationService{db: db, auth: auth, hasher: hasher, phones: phones}
}

func (s *organizationService) List(ctx context.Context, req ListRequest) (*page.Result[schema.Organization], error) {
	q := s.db.Model(&schema.Organization{})
	if !req.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if req.Search != "" {
		like := page.Like(req.Search)
		q = q.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}

	res, err := page.Find[schema.Organization](ctx, q, req.Request, "name ASC")
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return res, nil
}

func (s *organizationService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Organization, error) {
	if !scope.Allows(id) {
		return nil, ErrOrganizationNotFound
	}
	return s.find(ctx, s.db, id)
}

// Create inserts the organization, its first admin and the default reminder
// setting in one transaction. The casbin grouping is written after commit.
func (s *organizationService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	org := &schema.Organization{
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToLower(strings.TrimSpace(req.Code)),
		Address: strings.TrimSpace(req.Address),
		Email:   schema.NormalizeEmail(req.Email),
	}
	org.IsActive = true

	if org.Name == "" {
		return nil, ErrNameRequired
	}
	if org.Code == "" {
		suffix, err := codes.GenerateSecureToken(4)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		org.Code = "org-" + suffix
	}
	if !reCode.MatchString(org.Code) {
		return nil, ErrInvalidCode
	}
	if org.Email != "" && !validEmail(org.Email) {
		return nil, ErrInvalidEmail
	}
	p, err := s.phones.Normalize(req.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	org.Phone = p

	admin := &schema.User{
		Name:  strings.TrimSpace(req.Admin.Name),
		Email: schema.NormalizeEmail(req.Admin.Email),
		Role:  schema.RoleAdmin,
	}
	admin.IsActive = true
	if admin.Name == "" || admin.Email == "" || req.Admin.Password == "" {
		return nil, ErrAdminRequired
	}
	if !validEmail(admin.Email) {
		return nil, ErrInvalidEmail
	}
	hash, err := s.hasher.Hash(req.Admin.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.hasher.MinLength())
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin.PasswordHash = hash

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&schema.Organization{}).Where("code = ?", org.Code).Count(&n).Error; err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if n > 0 {
			return ErrCodeExists
		}
		if err := tx.Model(&schema.User{}).Where("email = ?", admin.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return ErrEmailExists
		}

		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		admin.OrganizationID = &org.ID
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		if err := tx.Create(schema.DefaultReminderSetting(org.ID)).Error; err != nil {
			return fmt.Errorf("create reminder setting: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeExists
		}
		return nil, err
	}

	if err := authorize.AssignUserRole(ctx, s.auth, admin.ID.String(), org.ID.String(), string(admin.Role)); err != nil {
		// the user row is the source of truth; roles are re-synced on next role change or migrate
		slog.Error("assign admin role", "organization_id", org.ID, "user_id", admin.ID, "error", err)
	}

	return &CreateResult{Organization: org, Admin: admin}, nil
}

func (s *organizationService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Organization, error) {
	if !scope.Allows(id) {
		return nil, ErrOrganizationNotFound
	}
	org, err := s.find(ctx, s.db, id)
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
	if req.Code != nil {
		if !scope.Principal.IsSuperAdmin() {
			return nil, ErrAccessDenied
		}
		code := strings.ToLower(strings.TrimSpace(*req.Code))
		if !reCode.MatchString(code) {
			return nil, ErrInvalidCode
		}
		updates["code"] = code
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Email != nil {
		e := schema.NormalizeEmail(*req.Email)
		if e != "" && !validEmail(e) {
			return nil, ErrInvalidEmail
		}
		updates["email"] = e
	}
	if req.Phone != nil {
		p, err := s.phones.Normalize(*req.Phone)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		updates["phone"] = p
	}
	if len(updates) == 0 {
		return org, nil
	}

	if err := s.db.WithContext(ctx).Model(org).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return s.find(ctx, s.db, id)
}

// SetActive toggles the tenant. Users of an inactive organization cannot log in.
func (s *organizationService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*schema.Organization, error) {
	org, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(org).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("set organization active: %w", err)
	}
	org.IsActive = active
	return org, nil
}

func (s *organizationService) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*schema.Organization, error) {
	var org schema.Organization
	if err := db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
