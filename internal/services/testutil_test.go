package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quentinv/invoicely/internal/db"
	"github.com/quentinv/invoicely/internal/models"
)

// newTestDB opens a shared-cache in-memory sqlite database scoped to the
// test name. Shared cache keeps the schema visible across the pooled
// connections gorm opens; the busy timeout lets concurrent writers queue
// instead of failing.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// sqlite ignores the busy timeout for shared-cache table locks, so
	// serialize all access through a single connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(conn))
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", Name: "Test User"}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func seedClient(t *testing.T, conn *gorm.DB, userID uint, name string) *models.Client {
	t.Helper()
	c := &models.Client{UserID: userID, Name: name}
	require.NoError(t, conn.Create(c).Error)
	return c
}
