package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/validation"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

type profileReq struct {
	FullName       string `json:"full_name"`
	CompanyName    string `json:"company_name"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	Phone          string `json:"phone"`
	BillingEmail   string `json:"billing_email"`
	TaxID          string `json:"tax_id"`
	DefaultTerms   string `json:"default_terms"`
	DefaultNotes   string `json:"default_notes"`
	DefaultDueDays int    `json:"default_due_days"`
}

// Get handles GET /profile. A user who has not saved a profile yet gets the
// unsaved defaults back rather than a not-found.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var profile models.Profile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSON(w, http.StatusOK, models.Profile{UserID: userID, DefaultDueDays: 14})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

// Save handles PUT /profile as an upsert keyed by the acting user.
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req profileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.DefaultDueDays == 0 {
		req.DefaultDueDays = 14
	}
	v := make(validation.Violations)
	validation.MaxLen("full_name", req.FullName, 120, v)
	validation.MaxLen("company_name", req.CompanyName, 120, v)
	validation.MaxLen("address_line1", req.AddressLine1, 160, v)
	validation.MaxLen("address_line2", req.AddressLine2, 160, v)
	validation.MaxLen("city", req.City, 80, v)
	validation.MaxLen("state", req.State, 80, v)
	validation.MaxLen("postal_code", req.PostalCode, 40, v)
	validation.MaxLen("country", req.Country, 80, v)
	validation.MaxLen("phone", req.Phone, 40, v)
	validation.MaxLen("tax_id", req.TaxID, 80, v)
	validation.MaxLen("default_terms", req.DefaultTerms, 2000, v)
	validation.MaxLen("default_notes", req.DefaultNotes, 2000, v)
	validation.RangeInt("default_due_days", req.DefaultDueDays, 1, 365, v)
	if req.BillingEmail != "" {
		validation.Email("billing_email", req.BillingEmail, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var profile models.Profile
	err := h.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	profile.UserID = userID
	profile.FullName = req.FullName
	profile.CompanyName = req.CompanyName
	profile.AddressLine1 = req.AddressLine1
	profile.AddressLine2 = req.AddressLine2
	profile.City = req.City
	profile.State = req.State
	profile.PostalCode = req.PostalCode
	profile.Country = req.Country
	profile.Phone = req.Phone
	profile.BillingEmail = req.BillingEmail
	profile.TaxID = req.TaxID
	profile.DefaultTerms = req.DefaultTerms
	profile.DefaultNotes = req.DefaultNotes
	profile.DefaultDueDays = req.DefaultDueDays

	if err := h.DB.Save(&profile).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_save_profile", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
