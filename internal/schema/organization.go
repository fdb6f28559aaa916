package schema

// Organization is a tenant: one care-provider company.
type Organization struct {
	Base
	SoftDelete

	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Code    string `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"type:varchar(32)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
}
