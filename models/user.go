package models

import "time"

// User is the owner profile printed as letterhead on rendered invoices. Its
// ID is the subject issued by the identity provider.
type User struct {
	ID          string    `json:"id"`
	CompanyName *string   `json:"company_name"`
	Address     *string   `json:"address"`
	City        *string   `json:"city"`
	State       *string   `json:"state"`
	ZipCode     *string   `json:"zip_code"`
	Country     *string   `json:"country"`
	Phone       *string   `json:"phone"`
	Logo        *string   `json:"logo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingsInput is used for updating the owner profile.
type SettingsInput struct {
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Logo        *string `json:"logo" validate:"omitempty,url,max=2048"`
}

func (s *SettingsInput) Validate() error {
	return checkStruct(s)
}

// Apply copies the input onto u.
func (s *SettingsInput) Apply(u *User) {
	u.CompanyName = s.CompanyName
	u.Address = s.Address
	u.City = s.City
	u.State = s.State
	u.ZipCode = s.ZipCode
	u.Country = s.Country
	u.Phone = s.Phone
	u.Logo = s.Logo
}
