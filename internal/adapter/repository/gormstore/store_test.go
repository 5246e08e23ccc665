package gormstore

import (
	"fmt"
	"testing"
	"time"

	"ecobank-loans/internal/domain/account"
	loanDomain "ecobank-loans/internal/domain/loan"
	"ecobank-loans/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns a private in-memory sqlite database with the full schema.
// One connection only: sqlite serializes writers and tx callbacks must not
// reach for a second connection.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", id.NewID32())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func makeLoan(ownerID string) *loanDomain.LoanRequest {
	return loanDomain.New(id.NewID32(), ownerID,
		decimal.NewFromInt(10_000_000), decimal.RequireFromString("0.15"),
		84, "Shop extension", time.Now().UTC())
}

func makeAccount(username string) *account.Account {
	return &account.Account{
		AccountID: id.NewID32(),
		Username:  username,
		Email:     username + "@example.com",
	}
}
