package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

type ListRequest struct {
	page.Request
	Role            string
	Active          *bool
	IncludeInactive bool
	Search          string
}

type CreateRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
	// OrganizationID is only honoured for super admins creating users in
	// another tenant; everyone else creates users in their own organization.
	OrganizationID *uuid.UUID
}

type UpdateRequest struct {
	Name     *string
	Role     *string
	IsActive *bool
}

type Service interface {
	List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.User], error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.User, error)
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.User, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.User, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
	ResetPassword(ctx context.Context, scope tenant.Scope, id uuid.UUID, newPassword string) error
	// SyncRoles rewrites the casbin grouping of every user from users.role.
	SyncRoles(ctx context.Context) (int, error)
}

type UserService struct {
	db        *gorm.DB
	authorize authorize.IAuthorization
	hasher    *password.Hasher
	mailer    email.Sender
	cfg       *config.Config
}

func New(db *gorm.DB, authz authorize.IAuthorization, hasher *password.Hasher, mailer email.Sender, cfg *config.Config) *UserService {
	return &UserService{db: db, authorize: authz, hasher: hasher, mailer: mailer, cfg: cfg}
}

func (s *UserService) List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.User], error) {
	q := scope.Apply(s.db.Model(&schema.User{}), "organization_id")
	if req.Role != "" {
		q = q.Where("role = ?", req.Role)
	}
	if req.Active != nil {
		q = q.Where("is_active = ?", *req.Active)
	} else if !req.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if req.Search != "" {
		like := page.Like(req.Search)
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	res, err := page.Find[schema.User](ctx, q, req.Request, "name ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return res, nil
}

// Get retrieves a user visible in scope. Super admins (no organization) are
// only visible to super admins.
func (s *UserService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.User, error) {
	var u schema.User
	err := scope.Apply(s.db.WithContext(ctx), "organization_id").First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *UserService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.User, error) {
	role := schema.Role(req.Role)
	if role == "" {
		role = schema.RoleStaff
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if role == schema.RoleSuperAdmin && !scope.Principal.IsSuperAdmin() {
		return nil, ErrSuperAdminOnly
	}

	u := &schema.User{
		Name:  strings.TrimSpace(req.Name),
		Email: schema.NormalizeEmail(req.Email),
		Role:  role,
	}
	u.IsActive = true
	if u.Name == "" {
		return nil, ErrNameRequired
	}
	if !validEmail(u.Email) {
		return nil, ErrInvalidEmail
	}

	if role != schema.RoleSuperAdmin {
		orgID, err := s.targetOrganization(scope, req.OrganizationID)
		if err != nil {
			return nil, err
		}
		u.OrganizationID = &orgID
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.syncRole(ctx, u)
	s.sendWelcome(ctx, u)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.User, error) {
	u, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	self := scope.Principal != nil && scope.Principal.UserID == u.ID

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	roleChanged := false
	if req.Role != nil && schema.Role(*req.Role) != u.Role {
		role := schema.Role(*req.Role)
		if !role.IsValid() {
			return nil, ErrInvalidRole
		}
		if self {
			return nil, ErrSelfRoleChange
		}
		if (role == schema.RoleSuperAdmin || u.Role == schema.RoleSuperAdmin) && !scope.Principal.IsSuperAdmin() {
			return nil, ErrSuperAdminOnly
		}
		if role != schema.RoleSuperAdmin && u.OrganizationID == nil {
			return nil, ErrOrganizationRequired
		}
		if role == schema.RoleSuperAdmin {
			updates["organization_id"] = nil
		}
		updates["role"] = role
		roleChanged = true
	}
	activeChanged := false
	if req.IsActive != nil && *req.IsActive != u.IsActive {
		if self && !*req.IsActive {
			return nil, ErrSelfDeactivation
		}
		updates["is_active"] = *req.IsActive
		activeChanged = true
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	// promoted users leave their organization domain
	if roleChanged && u.OrganizationID != nil && updates["role"] == schema.RoleSuperAdmin {
		if err := authorize.RevokeUserRoles(ctx, s.authorize, u.ID.String(), u.OrganizationID.String()); err != nil {
			slog.Error("revoke organization role", "user_id", u.ID, "error", err)
		}
	}

	updated, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if roleChanged || activeChanged {
		s.syncRole(ctx, updated)
	}
	return updated, nil
}

// Delete deactivates the user and drops their casbin roles.
func (s *UserService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	f := false
	_, err := s.Update(ctx, scope, id, UpdateRequest{IsActive: &f})
	return err
}

func (s *UserService) ResetPassword(ctx context.Context, scope tenant.Scope, id uuid.UUID, newPassword string) error {
	u, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if u.Role == schema.RoleSuperAdmin && !scope.Principal.IsSuperAdmin() {
		return ErrSuperAdminOnly
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *UserService) SyncRoles(ctx context.Context) (int, error) {
	var users []schema.User
	n := 0
	err := s.db.WithContext(ctx).Model(&schema.User{}).FindInBatches(&users, 200, func(*gorm.DB, int) error {
		for i := range users {
			if err := s.applyRole(ctx, &users[i]); err != nil {
				return fmt.Errorf("sync role for %s: %w", users[i].ID, err)
			}
			n++
		}
		return nil
	}).Error
	return n, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *UserService) targetOrganization(scope tenant.Scope, requested *uuid.UUID) (uuid.UUID, error) {
	if scope.Principal.IsSuperAdmin() && requested != nil {
		return *requested, nil
	}
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return uuid.Nil, ErrOrganizationRequired
	}
	return orgID, nil
}

func (s *UserService) hashPassword(pw string) (string, error) {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return "", fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.hasher.MinLength())
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *UserService) applyRole(ctx context.Context, u *schema.User) error {
	org := ""
	if u.OrganizationID != nil {
		org = u.OrganizationID.String()
	}
	if !u.IsActive {
		if org == "" {
			return s.authorize.ReplaceRoleInDomain(ctx, authorize.GroupSubject(u.ID.String()), "", authorize.DomainSys)
		}
		return authorize.RevokeUserRoles(ctx, s.authorize, u.ID.String(), org)
	}
	return authorize.AssignUserRole(ctx, s.authorize, u.ID.String(), org, string(u.Role))
}

func (s *UserService) syncRole(ctx context.Context, u *schema.User) {
	if err := s.applyRole(ctx, u); err != nil {
		slog.Error("sync user role", "user_id", u.ID, "role", u.Role, "error", err)
	}
}

func (s *UserService) sendWelcome(ctx context.Context, u *schema.User) {
	if s.mailer == nil {
		return
	}
	orgName := ""
	if u.OrganizationID != nil {
		var org schema.Organization
		if err := s.db.WithContext(ctx).Select("name").First(&org, "id = ?", *u.OrganizationID).Error; err == nil {
			orgName = org.Name
		}
	}
	msg := email.BuildWelcomeEmail(email.WelcomeData{
		Email:            u.Email,
		Name:             u.Name,
		OrganizationName: orgName,
		AppName:          s.cfg.Email.AppName,
		BaseURL:          s.cfg.Email.BaseURL,
	})
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.As(err, &email.ErrDisabled{}) {
		slog.Warn("failed to send welcome email", "user_id", u.ID, "error", err)
	}
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
