// Package testutil provides shared database fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/database"
	"github.com/Thejus-u/charity-forum/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB returns a migrated, isolated in-memory SQLite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN lets every pooled connection see the same
	// database while keeping tests isolated from each other.
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	cfg := &config.Config{
		Env:            "test",
		DBSchemaMode:   database.SchemaModeAuto,
		DBMaxOpenConns: 1,
	}

	db, err := database.ConnectWithOptions(sqlite.Open(dsn), cfg, true)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a member with a bcrypt hash of "password123".
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	return CreateUserWithRole(t, db, username, models.RoleMember)
}

// CreateUserWithRole inserts a user holding role.
func CreateUserWithRole(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  string(hash),
		Role:      role,
		FirstName: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
