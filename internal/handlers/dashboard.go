package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/services"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler { return &DashboardHandler{DB: db} }

type invoiceSummary struct {
	ID         uint                 `json:"id"`
	Number     int                  `json:"number"`
	ClientID   uint                 `json:"client_id"`
	ClientName string               `json:"client_name"`
	IssueDate  string               `json:"issue_date"`
	Status     models.InvoiceStatus `json:"status"`
	Total      decimal.Decimal      `json:"total"`
}

// Get handles GET /dashboard: the metric groups plus per-invoice summaries,
// all folded from one snapshot fetched for the acting user.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var invoices []models.Invoice
	err := h.DB.Where("user_id = ?", userID).
		Preload("Client").
		Preload("Items").
		Order("issue_date desc, id desc").
		Find(&invoices).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoices", nil)
		return
	}

	metrics := services.ComputeMetrics(invoices)
	summaries := make([]invoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		name := ""
		if inv.Client != nil {
			name = inv.Client.Name
		}
		summaries = append(summaries, invoiceSummary{
			ID:         inv.ID,
			Number:     inv.Number,
			ClientID:   inv.ClientID,
			ClientName: name,
			IssueDate:  inv.IssueDate.Format(dateLayout),
			Status:     inv.Status,
			Total:      inv.Total(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"by_client": metrics.ByClient,
		"by_month":  metrics.ByMonth,
		"by_year":   metrics.ByYear,
		"invoices":  summaries,
	})
}
