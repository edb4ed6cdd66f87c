package model

import "time"

// Account represents a user of the documentation service. Company fields
// feed report letterheads and prefill the report form.
type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string `gorm:"size:64;not null" json:"-"`
	Email        string `gorm:"size:128" json:"email"`
	FullName     string `gorm:"size:128" json:"full_name"`
	Status       int    `gorm:"default:1" json:"status"` // 0=disabled 1=normal

	CompanyName              string `gorm:"size:128" json:"company_name"`
	CompanyAddress           string `gorm:"size:255" json:"company_address"`
	CompanyPhone             string `gorm:"size:32" json:"company_phone"`
	CompanyEmail             string `gorm:"size:128" json:"company_email"`
	CompanyLogoURL           string `gorm:"size:512" json:"company_logo_url"`
	LicenseNumber            string `gorm:"size:64" json:"license_number"`
	ContactPerson            string `gorm:"size:128" json:"contact_person"`
	IICRCCertificationNumber string `gorm:"size:64" json:"iicrc_certification_number"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `gorm:"size:45" json:"last_login_ip"`
}

// DefaultCompanyName is used when a new account has no company set.
const DefaultCompanyName = "Green Planet Restoration"
