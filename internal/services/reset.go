package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/mailer"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/token"
)

// ErrTokenInvalid covers missing, consumed, and expired tokens alike.
var ErrTokenInvalid = errors.New("reset token is invalid or expired")

const resetTokenTTL = time.Hour

// ResetService issues and redeems single-use password-reset tokens.
type ResetService struct {
	db     *gorm.DB
	mailer mailer.Mailer
	appURL string
	now    func() time.Time
}

func NewResetService(db *gorm.DB, m mailer.Mailer, appURL string) *ResetService {
	return &ResetService{db: db, mailer: m, appURL: appURL, now: time.Now}
}

// RequestReset issues a token for the given email and mails the reset link.
// An unknown email returns nil just like a known one, so callers cannot
// probe which addresses are registered.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	raw, hash, err := token.New()
	if err != nil {
		return err
	}
	prt := models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.db.Create(&prt).Error; err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.appURL, "/"), raw)
	return s.mailer.Send(ctx, email, "Reset your password",
		"Reset your password by visiting: "+resetURL)
}

// ResetPassword redeems a raw token. The password update and the token
// consumption commit together; a consumed or expired token fails with
// ErrTokenInvalid and changes nothing.
func (s *ResetService) ResetPassword(rawToken, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	var prt models.PasswordResetToken
	if err := s.db.Where("token_hash = ?", token.Hash(rawToken)).First(&prt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	now := s.now()
	if !prt.Usable(now) {
		return ErrTokenInvalid
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		// The used_at IS NULL guard makes consumption race-safe: a second
		// redemption of the same token rolls the whole transaction back.
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", prt.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenInvalid
		}
		return tx.Model(&models.User{}).Where("id = ?", prt.UserID).
			Update("password", hash).Error
	})
}
