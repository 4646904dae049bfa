package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quentinv/invoicely/internal/models"
)

var (
	// ErrClientNotFound covers both a missing client and a client owned by
	// someone else; callers must not be able to tell the two apart.
	ErrClientNotFound = errors.New("client not found")
	// ErrInvoiceNotFound likewise hides foreign invoices.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// InvoiceItemInput is one requested line. LineTotal is computed here, not
// accepted from the caller.
type InvoiceItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// InvoiceInput is the validated payload for create and update.
type InvoiceInput struct {
	ClientID  uint
	Status    models.InvoiceStatus
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
	Terms     string
	Items     []InvoiceItemInput
}

// InvoiceService encapsulates invoice business logic: sequential per-client
// numbering, stored decimal line totals, and wholesale item replacement.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{db: db} }

// Create persists a new invoice with the next number in the client's
// sequence. The counter upsert and the invoice insert share one transaction,
// so an abort leaves the counter untouched and two concurrent creations for
// the same client never receive the same number.
func (s *InvoiceService) Create(userID uint, in InvoiceInput) (*models.Invoice, error) {
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", in.ClientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextInvoiceNumber(tx, in.ClientID)
		if err != nil {
			return err
		}
		inv = models.Invoice{
			UserID:    userID,
			ClientID:  in.ClientID,
			Number:    number,
			Status:    in.Status,
			IssueDate: in.IssueDate,
			DueDate:   in.DueDate,
			Notes:     in.Notes,
			Terms:     in.Terms,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		items := buildItems(inv.ID, in.Items)
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		inv.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update rewrites the invoice head and replaces its item set wholesale
// (delete-all-then-recreate) in one transaction. The invoice number is never
// touched on update.
func (s *InvoiceService) Update(userID, invoiceID uint, in InvoiceInput) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", in.ClientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"client_id":  in.ClientID,
			"status":     in.Status,
			"issue_date": in.IssueDate,
			"due_date":   in.DueDate,
			"notes":      in.Notes,
			"terms":      in.Terms,
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		items := buildItems(inv.ID, in.Items)
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, invoiceID)
}

// Get loads one invoice with client and position-ordered items, scoped to
// its owner.
func (s *InvoiceService) Get(userID, invoiceID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// List returns the user's invoices newest first with client and items
// preloaded.
func (s *InvoiceService) List(userID uint, limit, offset int) ([]models.Invoice, int64, error) {
	var total int64
	if err := s.db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invs []models.Invoice
	err := s.db.Where("user_id = ?", userID).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Order("issue_date desc, id desc").
		Limit(limit).Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

// Delete removes an invoice and its items. The number series is not
// decremented: numbers are never reused.
func (s *InvoiceService) Delete(userID, invoiceID uint) error {
	var inv models.Invoice
	if err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
}

// nextInvoiceNumber atomically obtains the next number in the client's
// sequence. The upsert creates the counter at 2 ("next after 1") when absent
// or increments it by 1; the assigned number is the pre-increment value.
func nextInvoiceNumber(tx *gorm.DB, clientID uint) (int, error) {
	seed := models.InvoiceNumberSeries{ClientID: clientID, NextNumber: 2}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.Assignments(map[string]any{"next_number": gorm.Expr("next_number + 1")}),
	}).Create(&seed).Error
	if err != nil {
		return 0, err
	}
	var series models.InvoiceNumberSeries
	if err := tx.Where("client_id = ?", clientID).First(&series).Error; err != nil {
		return 0, err
	}
	return series.NextNumber - 1, nil
}

// buildItems computes stored line totals at the currency's 2-decimal
// precision and assigns 1-based positions in input order.
func buildItems(invoiceID uint, inputs []InvoiceItemInput) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, models.InvoiceItem{
			InvoiceID:   invoiceID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			LineTotal:   in.Quantity.Mul(in.UnitPrice).Round(2),
			Position:    i + 1,
		})
	}
	return items
}
