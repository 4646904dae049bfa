package handlers

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/services"
)

type testMailer struct {
	to   string
	body string
}

func (m *testMailer) Send(_ context.Context, to, _, body string) error {
	m.to, m.body = to, body
	return nil
}

func newAuthFixture(t *testing.T) (*AuthHandler, *testMailer, *models.User) {
	t.Helper()
	conn := newTestDB(t)
	m := &testMailer{}
	h := NewAuthHandler(conn, services.NewResetService(conn, m, "http://localhost:8080"))
	user := seedUser(t, conn, "existing@example.com")
	return h, m, user
}

func TestSignup(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	rec := doJSON(t, h.Signup, http.MethodPost, "/signup", 0, map[string]string{
		"name": "Quentin", "email": "new@example.com", "password": "long-enough",
	})
	wantStatus(t, rec, http.StatusCreated)
	body := decodeBody(t, rec)
	if body["email"] != "new@example.com" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["password"]; ok {
		t.Fatal("password must never appear in responses")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, _, user := newAuthFixture(t)

	rec := doJSON(t, h.Signup, http.MethodPost, "/signup", 0, map[string]string{
		"email": user.Email, "password": "long-enough",
	})
	wantStatus(t, rec, http.StatusConflict)
	if decodeBody(t, rec)["error"] != "email_already_registered" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestSignupEmailIsCaseInsensitive(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	rec := doJSON(t, h.Signup, http.MethodPost, "/signup", 0, map[string]string{
		"email": "EXISTING@example.com", "password": "long-enough",
	})
	wantStatus(t, rec, http.StatusConflict)
}

func TestSignupValidation(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	rec := doJSON(t, h.Signup, http.MethodPost, "/signup", 0, map[string]string{
		"email": "not-an-email", "password": "short",
	})
	wantStatus(t, rec, http.StatusBadRequest)
	body := decodeBody(t, rec)
	details, _ := body["details"].(map[string]any)
	if details["email"] != "invalid_email" || details["password"] != "too_short" {
		t.Fatalf("details = %v", details)
	}
}

func TestLoginSetsSession(t *testing.T) {
	h, _, user := newAuthFixture(t)

	rec := doJSON(t, h.Login, http.MethodPost, "/login", 0, map[string]string{
		"email": user.Email, "password": "valid-password",
	})
	wantStatus(t, rec, http.StatusOK)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "session" || cookies[0].Value == "" {
		t.Fatalf("expected a session cookie, got %v", cookies)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	h, _, user := newAuthFixture(t)

	wrongPass := doJSON(t, h.Login, http.MethodPost, "/login", 0, map[string]string{
		"email": user.Email, "password": "wrong-password",
	})
	unknownEmail := doJSON(t, h.Login, http.MethodPost, "/login", 0, map[string]string{
		"email": "ghost@example.com", "password": "valid-password",
	})

	wantStatus(t, wrongPass, http.StatusUnauthorized)
	wantStatus(t, unknownEmail, http.StatusUnauthorized)
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Fatal("wrong password and unknown email must be indistinguishable")
	}
}

func TestForgotPasswordAlwaysOK(t *testing.T) {
	h, m, user := newAuthFixture(t)

	known := doJSON(t, h.ForgotPassword, http.MethodPost, "/password/forgot", 0, map[string]string{"email": user.Email})
	wantStatus(t, known, http.StatusOK)
	if m.to != user.Email {
		t.Fatalf("mail went to %q", m.to)
	}

	unknown := doJSON(t, h.ForgotPassword, http.MethodPost, "/password/forgot", 0, map[string]string{"email": "ghost@example.com"})
	wantStatus(t, unknown, http.StatusOK)
	if known.Body.String() != unknown.Body.String() {
		t.Fatal("known and unknown emails must produce identical responses")
	}
}

var tokenInMail = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestFullPasswordResetFlow(t *testing.T) {
	h, m, user := newAuthFixture(t)

	rec := doJSON(t, h.ForgotPassword, http.MethodPost, "/password/forgot", 0, map[string]string{"email": user.Email})
	wantStatus(t, rec, http.StatusOK)
	match := tokenInMail.FindStringSubmatch(m.body)
	if len(match) != 2 {
		t.Fatalf("no token in mail body %q", m.body)
	}
	raw := match[1]

	rec = doJSON(t, h.ResetPassword, http.MethodPost, "/password/reset", 0, map[string]string{
		"token": raw, "password": "fresh-password",
	})
	wantStatus(t, rec, http.StatusOK)

	login := doJSON(t, h.Login, http.MethodPost, "/login", 0, map[string]string{
		"email": user.Email, "password": "fresh-password",
	})
	wantStatus(t, login, http.StatusOK)

	reuse := doJSON(t, h.ResetPassword, http.MethodPost, "/password/reset", 0, map[string]string{
		"token": raw, "password": "yet-another-pass",
	})
	wantStatus(t, reuse, http.StatusBadRequest)
	if decodeBody(t, reuse)["error"] != "invalid_or_expired_token" {
		t.Fatalf("body = %s", reuse.Body.String())
	}
}

func TestResetPasswordRejectsShortToken(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	rec := doJSON(t, h.ResetPassword, http.MethodPost, "/password/reset", 0, map[string]string{
		"token": "too-short", "password": "fresh-password",
	})
	wantStatus(t, rec, http.StatusBadRequest)
	if decodeBody(t, rec)["error"] != "invalid_or_expired_token" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
