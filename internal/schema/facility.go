package schema

// Facility is a care home or residence where several patients are visited together.
type Facility struct {
	Base
	Tenant
	SoftDelete

	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"type:varchar(32)" json:"phone"`
	Notes   string `gorm:"type:text" json:"notes"`
}
