package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/db"
	"github.com/quentinv/invoicely/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatal(err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("valid-password")
	if err != nil {
		t.Fatal(err)
	}
	u := &models.User{Email: email, Password: hash, Name: "Test User"}
	if err := conn.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func seedClient(t *testing.T, conn *gorm.DB, userID uint, name string) *models.Client {
	t.Helper()
	c := &models.Client{UserID: userID, Name: name, Email: "client@example.com"}
	if err := conn.Create(c).Error; err != nil {
		t.Fatal(err)
	}
	return c
}

// doJSON runs handler with a JSON body and the given user already
// authenticated via context, mirroring what the session middleware does.
func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, userID uint, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(context.Background(), userID))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// doJSONWithID is doJSON plus a populated {id} path value.
func doJSONWithID(t *testing.T, handler http.HandlerFunc, method, target string, id uint, userID uint, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", strconv.FormatUint(uint64(id), 10))
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(context.Background(), userID))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}
