package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/format"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/pdf"
	"github.com/quentinv/invoicely/internal/policy"
	"github.com/quentinv/invoicely/internal/services"
	"github.com/quentinv/invoicely/internal/validation"
)

const dateLayout = "2006-01-02"

type InvoiceHandler struct {
	DB     *gorm.DB
	Svc    *services.InvoiceService
	Policy *policy.OwnershipPolicy
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc, Policy: policy.NewOwnershipPolicy()}
}

type invoiceItemReq struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type invoiceReq struct {
	ClientID  uint             `json:"client_id"`
	Status    string           `json:"status"`
	IssueDate string           `json:"issue_date"`
	DueDate   string           `json:"due_date"`
	Notes     string           `json:"notes"`
	Terms     string           `json:"terms"`
	Items     []invoiceItemReq `json:"items"`
}

// parse validates the request and converts it to a service input.
func (req *invoiceReq) parse() (services.InvoiceInput, validation.Violations) {
	v := make(validation.Violations)
	in := services.InvoiceInput{
		ClientID: req.ClientID,
		Status:   models.InvoiceStatus(req.Status),
		Notes:    req.Notes,
		Terms:    req.Terms,
	}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !models.ValidStatus(in.Status) {
		v["status"] = "invalid_status"
	}
	var err error
	if in.IssueDate, err = time.Parse(dateLayout, req.IssueDate); err != nil {
		v["issue_date"] = "invalid_date"
	}
	if in.DueDate, err = time.Parse(dateLayout, req.DueDate); err != nil {
		v["due_date"] = "invalid_date"
	}
	validation.MaxLen("notes", req.Notes, 2000, v)
	validation.MaxLen("terms", req.Terms, 2000, v)
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	for i, item := range req.Items {
		field := "items." + strconv.Itoa(i)
		validation.MinLen(field+".description", item.Description, 2, v)
		validation.MaxLen(field+".description", item.Description, 240, v)
		validation.PositiveDecimal(field+".quantity", item.Quantity, v)
		validation.NonNegativeDecimal(field+".unit_price", item.UnitPrice, v)
		in.Items = append(in.Items, services.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return in, v
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req invoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in, v := req.parse()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	inv, err := h.Svc.Create(userID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":     inv.ID,
		"number": inv.Number,
		"status": inv.Status,
		"total":  inv.Total(),
	})
}

// Update handles PUT /invoices/{id}.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req invoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in, v := req.parse()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	inv, err := h.Svc.Update(userID, id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Get handles GET /invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(userID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
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
	invs, total, err := h.Svc.List(userID, limit, offset)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": total, "limit": limit, "offset": offset})
}

// Delete handles DELETE /invoices/{id}.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(userID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PDF handles GET /invoices/{id}/pdf.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(userID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !h.Policy.Can(userID, inv) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var user models.User
	if err := h.DB.Preload("Profile").First(&user, userID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}

	data := buildPDFData(inv, &user)
	out, err := pdf.Render(data)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}

	clientSlug := sanitizeFilename(inv.Client.Name)
	if clientSlug == "" {
		clientSlug = "Client"
	}
	filename := fmt.Sprintf("Invoice-%s-%s-%s.pdf", data.Number, clientSlug, format.ISODate(inv.IssueDate))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// buildPDFData resolves the invoice, its client, and the issuing user's
// profile into the flat document model. Profile fields fall back to the
// user's own name/email when unset.
func buildPDFData(inv *models.Invoice, user *models.User) pdf.InvoiceData {
	from := pdf.Party{Name: user.Name, Email: user.Email}
	if p := user.Profile; p != nil {
		if p.CompanyName != "" {
			from.Name = p.CompanyName
		}
		if p.FullName != "" {
			from.Contact = p.FullName
		}
		if p.BillingEmail != "" {
			from.Email = p.BillingEmail
		}
		from.Phone = p.Phone
		from.Address = p.Address()
		from.TaxID = p.TaxID
	}
	billTo := pdf.Party{
		Name:    inv.Client.Name,
		Email:   inv.Client.Email,
		Phone:   inv.Client.Phone,
		Address: inv.Client.Address(),
		TaxID:   inv.Client.TaxID,
	}
	items := make([]pdf.Item, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, pdf.Item{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   format.Currency(item.UnitPrice),
			LineTotal:   format.Currency(item.LineTotal),
		})
	}
	return pdf.InvoiceData{
		Number:    fmt.Sprintf("%03d", inv.Number),
		Status:    string(inv.Status),
		IssueDate: format.Date(inv.IssueDate),
		DueDate:   format.Date(inv.DueDate),
		From:      from,
		BillTo:    billTo,
		Items:     items,
		Total:     format.Currency(inv.Total()),
		Notes:     inv.Notes,
		Terms:     inv.Terms,
	}
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9-_]+`)
var dashRuns = regexp.MustCompile(`-+`)

// sanitizeFilename reduces a client name to filename-safe characters.
func sanitizeFilename(name string) string {
	s := filenameUnsafe.ReplaceAllString(name, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	for len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

func (h *InvoiceHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		httpx.JSONError(w, http.StatusNotFound, "client_not_found", nil)
	case errors.Is(err, services.ErrInvoiceNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}
