package models

import "time"

// User owns profiles, clients and invoices. Password holds the bcrypt hash,
// never the raw credential.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Name      string    `gorm:"size:80" json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile  *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Clients  []Client  `gorm:"foreignKey:UserID" json:"-"`
	Invoices []Invoice `gorm:"foreignKey:UserID" json:"-"`
}
