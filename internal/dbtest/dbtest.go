// Package dbtest opens a migrated in-memory database for handler tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"autohub/internal/config"
	"autohub/internal/models"
)

var seq atomic.Int64

// Open installs a fresh SQLite database as config.DB for the duration of t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:autohub_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	// one connection keeps the in-memory database alive and serializes writes
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	prev := config.DB
	config.DB = db
	t.Cleanup(func() {
		config.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

// Account inserts an account with the given role and fails the test on error.
func Account(t testing.TB, db *gorm.DB, email, role string) models.Account {
	t.Helper()

	account := models.Account{
		Name:                   "Test " + role,
		Email:                  email,
		Phone:                  "+15550001111",
		Role:                   role,
		AuthProvider:           models.ProviderLocal,
		IsRegistrationComplete: true,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
	return account
}
