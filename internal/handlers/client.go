package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/validation"
)

type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

type clientReq struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	TaxID        string `json:"tax_id"`
}

func (req *clientReq) validate() validation.Violations {
	v := make(validation.Violations)
	validation.MinLen("name", req.Name, 2, v)
	validation.MaxLen("name", req.Name, 120, v)
	if req.Email != "" {
		validation.Email("email", req.Email, v)
	}
	validation.MaxLen("phone", req.Phone, 40, v)
	validation.MaxLen("address_line1", req.AddressLine1, 160, v)
	validation.MaxLen("address_line2", req.AddressLine2, 160, v)
	validation.MaxLen("city", req.City, 80, v)
	validation.MaxLen("state", req.State, 80, v)
	validation.MaxLen("postal_code", req.PostalCode, 40, v)
	validation.MaxLen("country", req.Country, 80, v)
	validation.MaxLen("tax_id", req.TaxID, 80, v)
	return v
}

func (req *clientReq) apply(c *models.Client) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = strings.TrimSpace(req.Phone)
	c.AddressLine1 = req.AddressLine1
	c.AddressLine2 = req.AddressLine2
	c.City = req.City
	c.State = req.State
	c.PostalCode = req.PostalCode
	c.Country = req.Country
	c.TaxID = req.TaxID
}

// List handles GET /clients with optional q search and pagination.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Where("user_id = ?", userID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var total int64
	dbq.Model(&models.Client{}).Count(&total)
	var clients []models.Client
	if err := dbq.Order("name").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": limit, "offset": offset})
}

// Create handles POST /clients.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req clientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client := models.Client{UserID: userID}
	req.apply(&client)
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

// Get handles GET /clients/{id}.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	client, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Update handles PUT /clients/{id}.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	client, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	var req clientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	req.apply(client)
	if err := h.DB.Save(client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Delete handles DELETE /clients/{id}. Clients with invoices cannot be
// removed; their invoices (and numbers) must stay intact.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	client, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	var invoiceCount int64
	if err := h.DB.Model(&models.Invoice{}).Where("client_id = ?", client.ID).Count(&invoiceCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if invoiceCount > 0 {
		httpx.JSONError(w, http.StatusConflict, "client_has_invoices", nil)
		return
	}
	if err := h.DB.Delete(client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// load fetches the path client scoped to the owner; a foreign or missing
// client is a plain not-found.
func (h *ClientHandler) load(w http.ResponseWriter, r *http.Request, userID uint) (*models.Client, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var client models.Client
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	return &client, true
}
