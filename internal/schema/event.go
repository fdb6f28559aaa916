package schema

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeVisit        EventType = "visit"
	EventTypePrescription EventType = "prescription"
	EventTypeBoth         EventType = "both"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeVisit, EventTypePrescription, EventTypeBoth:
		return true
	}
	return false
}

// Event is one scheduled visit and/or prescription delivery.
// At least one of PatientID and FacilityID is set.
type Event struct {
	Base
	Tenant
	SoftDelete

	PatientID   *uuid.UUID `gorm:"type:uuid;index" json:"patient_id"`
	Patient     *Patient   `gorm:"constraint:OnDelete:SET NULL" json:"patient,omitempty"`
	FacilityID  *uuid.UUID `gorm:"type:uuid;index" json:"facility_id"`
	Facility    *Facility  `gorm:"constraint:OnDelete:SET NULL" json:"facility,omitempty"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id"`
	Assignee    *User      `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	CreatedByID uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_id"`

	Title   string    `gorm:"type:varchar(200)" json:"title"`
	Type    EventType `gorm:"type:varchar(20);not null" json:"type"`
	StartAt time.Time `gorm:"not null" json:"start_at"`
	EndAt   time.Time `gorm:"not null" json:"end_at"`
	AllDay  bool      `gorm:"not null" json:"all_day"`
	Notes   string    `gorm:"type:text" json:"notes"`

	IsRecurring       bool       `gorm:"not null" json:"is_recurring"`
	RecurrenceGroupID *uuid.UUID `gorm:"type:uuid;index" json:"recurrence_group_id"`
}

// FacilityRef returns the facility the event happens at: its own, or the patient's.
func (e *Event) FacilityRef() *Facility {
	if e.Facility != nil {
		return e.Facility
	}
	if e.Patient != nil && e.Patient.Facility != nil {
		return e.Patient.Facility
	}
	return nil
}
