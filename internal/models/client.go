package models

import "time"

// Client is a billing contact owned by a user.
// Implements policy.Ownable for ownership-based authorization.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name  string `gorm:"size:120;not null" json:"name"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Phone string `gorm:"size:40" json:"phone,omitempty"`

	AddressLine1 string `gorm:"size:160" json:"address_line1,omitempty"`
	AddressLine2 string `gorm:"size:160" json:"address_line2,omitempty"`
	City         string `gorm:"size:80" json:"city,omitempty"`
	State        string `gorm:"size:80" json:"state,omitempty"`
	PostalCode   string `gorm:"size:40" json:"postal_code,omitempty"`
	Country      string `gorm:"size:80" json:"country,omitempty"`

	TaxID string `gorm:"size:80" json:"tax_id,omitempty"`

	Invoices []Invoice `gorm:"foreignKey:ClientID" json:"-"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint { return c.UserID }

// Address returns the client address as a single comma separated line.
func (c *Client) Address() string {
	return joinAddress(c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode, c.Country)
}
