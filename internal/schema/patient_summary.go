package schema

import (
	"time"

	"github.com/google/uuid"
)

// PatientSummary is the current handover note for a patient. One per patient.
type PatientSummary struct {
	Base
	Tenant

	PatientID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"patient_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	UpdatedByID *uuid.UUID `gorm:"type:uuid" json:"updated_by_id"`
	UpdatedBy   *User      `gorm:"foreignKey:UpdatedByID" json:"updated_by,omitempty"`
}

// PatientSummaryHistory is an append-only archive of overwritten summaries.
type PatientSummaryHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"created_at"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	SummaryID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"summary_id"`
	PatientID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"patient_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	EditedByID     *uuid.UUID `gorm:"type:uuid" json:"edited_by_id"`
	EditedBy       *User      `gorm:"foreignKey:EditedByID" json:"edited_by,omitempty"`
}

func (PatientSummaryHistory) TableName() string {
	return "patient_summary_histories"
}
