package models

import "time"

// Profile is the business identity printed on invoices, one per user.
// Default terms/notes/due-days seed the invoice form for new invoices.
type Profile struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	FullName     string `gorm:"size:120" json:"full_name,omitempty"`
	CompanyName  string `gorm:"size:120" json:"company_name,omitempty"`
	AddressLine1 string `gorm:"size:160" json:"address_line1,omitempty"`
	AddressLine2 string `gorm:"size:160" json:"address_line2,omitempty"`
	City         string `gorm:"size:80" json:"city,omitempty"`
	State        string `gorm:"size:80" json:"state,omitempty"`
	PostalCode   string `gorm:"size:40" json:"postal_code,omitempty"`
	Country      string `gorm:"size:80" json:"country,omitempty"`
	Phone        string `gorm:"size:40" json:"phone,omitempty"`
	BillingEmail string `gorm:"size:255" json:"billing_email,omitempty"`
	TaxID        string `gorm:"size:80" json:"tax_id,omitempty"`

	DefaultTerms   string `gorm:"type:text" json:"default_terms,omitempty"`
	DefaultNotes   string `gorm:"type:text" json:"default_notes,omitempty"`
	DefaultDueDays int    `gorm:"default:14" json:"default_due_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address returns the profile address as a single comma separated line,
// skipping empty parts.
func (p *Profile) Address() string {
	return joinAddress(p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country)
}

func joinAddress(parts ...string) string {
	out := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}
