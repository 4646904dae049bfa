package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
)

var cookieValueRe = regexp.MustCompile(`^[0-9]+\.[A-Za-z0-9_-]+$`)

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestCreateSessionCookieShape(t *testing.T) {
	c := sessionCookie(t, 42)
	if c.Name != "session" {
		t.Fatalf("cookie name = %q", c.Name)
	}
	if !c.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if !cookieValueRe.MatchString(c.Value) {
		t.Fatalf("unexpected cookie value %q", c.Value)
	}
}

func TestParseSessionRoundTrip(t *testing.T) {
	c := sessionCookie(t, 42)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	uid, ok := ParseSession(req)
	if !ok || uid != 42 {
		t.Fatalf("ParseSession = (%d, %v), want (42, true)", uid, ok)
	}
}

func TestParseSessionRejectsTampering(t *testing.T) {
	c := sessionCookie(t, 42)
	cases := map[string]string{
		"forged uid":    "43." + c.Value[len("42."):],
		"no signature":  "42",
		"empty value":   "",
		"garbage":       "not-a-session",
		"bad signature": "42.AAAA",
	}
	for name, value := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: value})
		if _, ok := ParseSession(req); ok {
			t.Errorf("%s: tampered cookie %q accepted", name, value)
		}
	}
}

func TestRequireAuthWithoutSession(t *testing.T) {
	h := Middleware(RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRequireAuthVerifierRejectsDeletedUser(t *testing.T) {
	SetUserVerifier(func(context.Context, uint) bool { return false })
	t.Cleanup(func() { SetUserVerifier(nil) })

	h := Middleware(RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, 42))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewarePassesUserID(t *testing.T) {
	var got uint
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, 7))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != 7 {
		t.Fatalf("user id in context = %d, want 7", got)
	}
}
