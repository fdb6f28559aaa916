package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base gives every table a UUIDv7 primary key and timestamps.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns a time-ordered id when the caller did not set one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// Tenant marks a row as owned by one organization.
type Tenant struct {
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
}

// SoftDelete is the is_active flag. Inactive rows are hidden from normal lists.
type SoftDelete struct {
	IsActive bool `gorm:"not null;index" json:"is_active"`
}

// NewID returns a UUIDv7, panicking only if the system RNG is broken.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}

// All lists every model for migrations, parents before children.
func All() []any {
	return []any{
		&Organization{},
		&User{},
		&Facility{},
		&Patient{},
		&Event{},
		&PatientSummary{},
		&PatientSummaryHistory{},
		&PatientDocument{},
		&Reminder{},
		&ReminderSetting{},
		&IcsToken{},
	}
}
