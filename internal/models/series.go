package models

import "time"

// InvoiceNumberSeries holds the next sequential invoice number for one
// client. Rows are created lazily on the first invoice and incremented
// atomically inside the invoice-creation transaction.
type InvoiceNumberSeries struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClientID   uint      `gorm:"uniqueIndex;not null" json:"client_id"`
	NextNumber int       `gorm:"not null;default:1" json:"next_number"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName keeps the singular-free form gorm would otherwise guess at.
func (InvoiceNumberSeries) TableName() string { return "invoice_number_series" }
