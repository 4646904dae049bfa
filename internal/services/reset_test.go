package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quentinv/invoicely/internal/auth"
	"github.com/quentinv/invoicely/internal/models"
	"github.com/quentinv/invoicely/internal/token"
)

type capturingMailer struct {
	to      string
	subject string
	body    string
	sends   int
}

func (m *capturingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	m.sends++
	return nil
}

var resetLinkRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func newResetFixture(t *testing.T) (*gorm.DB, *ResetService, *capturingMailer, *models.User) {
	t.Helper()
	conn := newTestDB(t)
	hash, err := auth.HashPassword("original-pass")
	require.NoError(t, err)
	user := &models.User{Email: "reset@example.com", Password: hash}
	require.NoError(t, conn.Create(user).Error)
	m := &capturingMailer{}
	return conn, NewResetService(conn, m, "http://localhost:8080/"), m, user
}

func requestToken(t *testing.T, svc *ResetService, m *capturingMailer, email string) string {
	t.Helper()
	require.NoError(t, svc.RequestReset(context.Background(), email))
	match := resetLinkRe.FindStringSubmatch(m.body)
	require.Len(t, match, 2, "mail body must carry the raw token: %q", m.body)
	return match[1]
}

func TestRequestResetStoresHashOnly(t *testing.T) {
	conn, svc, m, user := newResetFixture(t)

	raw := requestToken(t, svc, m, user.Email)
	assert.Equal(t, user.Email, m.to)

	var prt models.PasswordResetToken
	require.NoError(t, conn.First(&prt).Error)
	assert.NotEqual(t, raw, prt.TokenHash, "raw token must never be persisted")
	assert.Equal(t, token.Hash(raw), prt.TokenHash)
	assert.Nil(t, prt.UsedAt)
}

func TestRequestResetUnknownEmailIsSilent(t *testing.T) {
	conn, svc, m, _ := newResetFixture(t)

	require.NoError(t, svc.RequestReset(context.Background(), "nobody@example.com"))
	assert.Zero(t, m.sends, "no mail for unknown addresses")

	var count int64
	require.NoError(t, conn.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	conn, svc, m, user := newResetFixture(t)
	raw := requestToken(t, svc, m, user.Email)

	require.NoError(t, svc.ResetPassword(raw, "brand-new-pass"))

	var updated models.User
	require.NoError(t, conn.First(&updated, user.ID).Error)
	assert.True(t, auth.VerifyPassword(updated.Password, "brand-new-pass"))
	assert.False(t, auth.VerifyPassword(updated.Password, "original-pass"))

	err := svc.ResetPassword(raw, "another-new-pass")
	assert.ErrorIs(t, err, ErrTokenInvalid, "consumed tokens never work twice")
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	conn, svc, m, user := newResetFixture(t)
	raw := requestToken(t, svc, m, user.Email)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err := svc.ResetPassword(raw, "brand-new-pass")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	var updated models.User
	require.NoError(t, conn.First(&updated, user.ID).Error)
	assert.True(t, auth.VerifyPassword(updated.Password, "original-pass"),
		"an expired token must change nothing")
}

func TestResetPasswordRejectsUnknownToken(t *testing.T) {
	_, svc, _, _ := newResetFixture(t)
	err := svc.ResetPassword("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef", "brand-new-pass")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetPasswordEnforcesPasswordPolicy(t *testing.T) {
	_, svc, m, user := newResetFixture(t)
	raw := requestToken(t, svc, m, user.Email)

	err := svc.ResetPassword(raw, "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	// The failed attempt must not consume the token.
	assert.NoError(t, svc.ResetPassword(raw, "long-enough-pass"))
}
