package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/httpx"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/services"
	"github.com/quentinv/invoicely/internal/validation"
)

type AuthHandler struct {
	DB    *gorm.DB
	Reset *services.ResetService
}

func NewAuthHandler(db *gorm.DB, reset *services.ResetService) *AuthHandler {
	return &AuthHandler{DB: db, Reset: reset}
}

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	if req.Email != "" {
		validation.Email("email", req.Email, v)
	}
	validation.MaxLen("name", req.Name, 80, v)
	if auth.ValidatePassword(req.Password) != nil {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{Email: req.Email, Password: hash, Name: req.Name}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_user", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email, "name": user.Name})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login. Unknown email and bad password produce the
// same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if !auth.VerifyPassword(user.Password, req.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email, "name": user.Name})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type forgotReq struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /password/forgot. The response is identical
// whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	v := make(validation.Violations)
	validation.Required("email", email, v)
	if email != "" {
		validation.Email("email", email, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.Reset.RequestReset(r.Context(), email); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles POST /password/reset.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if len(req.Token) < 32 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_or_expired_token", nil)
		return
	}
	err := h.Reset.ResetPassword(req.Token, req.Password)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, services.ErrTokenInvalid):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_or_expired_token", nil)
	case errors.Is(err, auth.ErrWeakPassword):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"password": "too_short"})
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
