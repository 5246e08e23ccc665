package payment

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("payment not found")
)

// Table: payments. One row per key-confirmation attempt against a loan request.
type Payment struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	PaymentID string `gorm:"column:payment_id;size:32;not null;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	// FK to loan_requests.id (numeric)
	LoanRequestID uint64    `gorm:"column:loan_request_id;not null;index" json:"-"`
	EnteredKey    string    `gorm:"column:entered_key;size:64;not null" json:"-"`
	ValidatedBy   string    `gorm:"column:validated_by;size:32;not null" json:"validated_by"`
	Matched       bool      `gorm:"column:matched;not null" json:"matched"`
	RecordedAt    time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Payment) TableName() string { return "payments" }
