package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/config"
	"github.com/quentinv/invoicely/internal/handlers"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/mailer"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	var outbound mailer.Mailer = mailer.LogMailer{}
	if cfg.ResendAPIKey != "" {
		outbound = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.ResendFromEmail)
	}

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	resetSvc := services.NewResetService(db, outbound, cfg.AppURL)
	ah := handlers.NewAuthHandler(db, resetSvc)
	mux.HandleFunc("POST /signup", ah.Signup)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)
	mux.HandleFunc("POST /password/forgot", ah.ForgotPassword)
	mux.HandleFunc("POST /password/reset", ah.ResetPassword)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	// Client endpoints
	ch := handlers.NewClientHandler(db)
	mux.Handle("GET /clients", protect(ch.List))
	mux.Handle("POST /clients", protect(ch.Create))
	mux.Handle("GET /clients/{id}", protect(ch.Get))
	mux.Handle("PUT /clients/{id}", protect(ch.Update))
	mux.Handle("DELETE /clients/{id}", protect(ch.Delete))

	// Profile endpoints
	ph := handlers.NewProfileHandler(db)
	mux.Handle("GET /profile", protect(ph.Get))
	mux.Handle("PUT /profile", protect(ph.Save))

	// Invoice endpoints
	invSvc := services.NewInvoiceService(db)
	ih := handlers.NewInvoiceHandler(db, invSvc)
	mux.Handle("GET /invoices", protect(ih.List))
	mux.Handle("POST /invoices", protect(ih.Create))
	mux.Handle("GET /invoices/{id}", protect(ih.Get))
	mux.Handle("PUT /invoices/{id}", protect(ih.Update))
	mux.Handle("DELETE /invoices/{id}", protect(ih.Delete))
	mux.Handle("GET /invoices/{id}/pdf", protect(ih.PDF))

	// Dashboard
	dh := handlers.NewDashboardHandler(db)
	mux.Handle("GET /dashboard", protect(dh.Get))

	return withRecover(withLogging(mux))
}

// withLogging logs every request with a generated request id.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"request_id", rid,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "path", r.URL.Path, "panic", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
