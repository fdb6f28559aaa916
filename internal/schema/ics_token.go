package schema

import (
	"time"

	"github.com/google/uuid"
)

type IcsTokenKind string

const (
	IcsTokenOrganization IcsTokenKind = "organization"
	IcsTokenPersonal     IcsTokenKind = "personal"
)

func (k IcsTokenKind) IsValid() bool {
	return k == IcsTokenOrganization || k == IcsTokenPersonal
}

// IcsToken grants read access to a calendar feed. Only the SHA-256 hash is stored.
type IcsToken struct {
	Base
	Tenant
	SoftDelete

	UserID     *uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	Kind       IcsTokenKind `gorm:"type:varchar(20);not null" json:"kind"`
	Label      string       `gorm:"type:varchar(100)" json:"label"`
	TokenHash  string       `gorm:"type:char(64);not null;uniqueIndex" json:"-"`
	TokenHint  string       `gorm:"type:varchar(8)" json:"token_hint"`
	LastUsedAt *time.Time   `json:"last_used_at"`
}
