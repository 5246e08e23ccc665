// Package gormstore implements the domain repositories and the unit of work on gorm.
// The same code runs against mysql, postgres and sqlite.
package gormstore

import (
	"errors"

	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/domain/payment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&account.Account{},
		&account.Profile{},
		&loan.LoanRequest{},
		&payment.Payment{},
		&notification.Notification{},
		&message.Message{},
	)
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has it. sqlite has no
// row locks; its DSN opens transactions with BEGIN IMMEDIATE so writers queue.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm's miss onto the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
