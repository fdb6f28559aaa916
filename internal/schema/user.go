package schema

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleViewer     Role = "viewer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// User is a login account. Super admins have no organization.
type User struct {
	Base
	SoftDelete

	OrganizationID *uuid.UUID    `gorm:"type:uuid;index" json:"organization_id"`
	Organization   *Organization `gorm:"constraint:OnDelete:RESTRICT" json:"organization,omitempty"`

	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"type:varchar(200);not null" json:"name"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
