// Package storetest connects store tests to a disposable postgres database.
package storetest

import (
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	pgstore "github.com/dwarvesf/walletpay-backend/internal/store/postgres"
)

// NewTestDB opens TEST_DATABASE_URL, migrates the schema and truncates every table.
// Tests are skipped when the variable is not set.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := pgstore.Open(dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(&model.TransactionRecord{}, &model.WalletOverride{}, &model.CustomToken{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	truncate := func() {
		db.Exec("TRUNCATE TABLE transaction_records, wallet_overrides, custom_tokens RESTART IDENTITY")
	}
	truncate()

	t.Cleanup(func() {
		truncate()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
