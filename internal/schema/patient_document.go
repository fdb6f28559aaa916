package schema

import "github.com/google/uuid"

// PatientDocument is an attachment stored in object storage.
type PatientDocument struct {
	Base
	Tenant
	SoftDelete

	PatientID    uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ObjectKey    string    `gorm:"type:varchar(512);not null" json:"-"`
	ContentType  string    `gorm:"type:varchar(128)" json:"content_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	UploadedByID uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by_id"`
}
