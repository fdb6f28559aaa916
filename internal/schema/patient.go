package schema

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Patient is a per-organization care recipient, optionally living in a facility.
type Patient struct {
	Base
	Tenant
	SoftDelete

	FacilityID *uuid.UUID `gorm:"type:uuid;index" json:"facility_id"`
	Facility   *Facility  `gorm:"constraint:OnDelete:SET NULL" json:"facility,omitempty"`

	Name       string     `gorm:"type:varchar(200);not null" json:"name"`
	NameKana   string     `gorm:"type:varchar(200)" json:"name_kana"`
	BirthDate  *time.Time `gorm:"type:date" json:"birth_date"`
	Gender     Gender     `gorm:"type:varchar(10);not null;default:'unknown'" json:"gender"`
	Address    string     `gorm:"type:text" json:"address"`
	Phone      string     `gorm:"type:varchar(32)" json:"phone"`
	RoomNumber string     `gorm:"type:varchar(32)" json:"room_number"`
	Notes      string     `gorm:"type:text" json:"notes"`

	// InsuranceNumberEnc is AES-GCM ciphertext; services expose the plaintext.
	InsuranceNumberEnc string `gorm:"column:insurance_number_enc;type:text" json:"-"`
}
