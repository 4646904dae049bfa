package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResendMailerSend(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("test-key", "no-reply@acme.example")
	m.Endpoint = srv.URL

	err := m.Send(context.Background(), "user@example.com", "Reset your password", "click here")
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPayload["from"] != "no-reply@acme.example" || gotPayload["subject"] != "Reset your password" {
		t.Fatalf("payload = %v", gotPayload)
	}
	to, _ := gotPayload["to"].([]any)
	if len(to) != 1 || to[0] != "user@example.com" {
		t.Fatalf("to = %v", gotPayload["to"])
	}
}

func TestResendMailerSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := NewResendMailer("test-key", "no-reply@acme.example")
	m.Endpoint = srv.URL

	if err := m.Send(context.Background(), "user@example.com", "s", "b"); err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
