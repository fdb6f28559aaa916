package schema

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a one-shot notification delivered by the dispatcher at RemindAt.
type Reminder struct {
	Base
	Tenant
	SoftDelete

	PatientID *uuid.UUID `gorm:"type:uuid;index" json:"patient_id"`
	EventID   *uuid.UUID `gorm:"type:uuid;index" json:"event_id"`
	// UserID is the recipient; nil means the organization's admins.
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`

	Title    string     `gorm:"type:varchar(200);not null" json:"title"`
	Message  string     `gorm:"type:text" json:"message"`
	RemindAt time.Time  `gorm:"not null" json:"remind_at"`
	IsSent   bool       `gorm:"not null" json:"is_sent"`
	SentAt   *time.Time `json:"sent_at"`
	// Auto marks reminders generated from the organization's ReminderSetting.
	Auto bool `gorm:"not null" json:"auto"`
}

// ReminderSetting holds per-organization auto-reminder preferences.
type ReminderSetting struct {
	Base

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"organization_id"`
	Enabled        bool      `gorm:"not null" json:"enabled"`
	LeadMinutes    int       `gorm:"not null" json:"lead_minutes"`
	SendEmail      bool      `gorm:"not null" json:"send_email"`
}

// DefaultReminderSetting is created together with each organization.
func DefaultReminderSetting(orgID uuid.UUID) *ReminderSetting {
	return &ReminderSetting{
		OrganizationID: orgID,
		Enabled:        false,
		LeadMinutes:    24 * 60,
		SendEmail:      true,
	}
}
