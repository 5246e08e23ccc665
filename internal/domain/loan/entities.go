package loan

import (
	"fmt"
	"time"

	"ecobank-loans/pkg/money"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
	StatusActive    Status = "active"
)

// Statuses lists every lifecycle status in lifecycle order.
var Statuses = []Status{StatusPending, StatusValidated, StatusRejected, StatusPaid, StatusActive}

// transitions is the whole state machine; nothing is reversible.
var transitions = map[Status][]Status{
	StatusPending:   {StatusValidated, StatusRejected},
	StatusValidated: {StatusPaid},
	StatusPaid:      {StatusActive},
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// InProgress reports whether a request in this status blocks a new submission.
func (s Status) InProgress() bool { return s == StatusPending || s == StatusValidated }

func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// Paid reports whether the money went out: paid, or active after that.
func (s Status) Paid() bool { return s == StatusPaid || s == StatusActive }

// HoldsKey reports whether a request in this status must carry a payment key.
func (s Status) HoldsKey() bool {
	return s == StatusValidated || s == StatusPaid || s == StatusActive
}

// daysPerRepaymentMonth matches the flat 30-day month used on certificates.
const daysPerRepaymentMonth = 30

type LoanRequest struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	RequestID          string          `gorm:"size:32;uniqueIndex:ux_loan_requests_request_id;not null" json:"request_id"`
	OwnerID            string          `gorm:"size:32;not null;index:idx_loan_requests_owner_status" json:"owner_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	AdvanceRate        decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"advance_rate"`
	AdvanceAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"advance_amount"`
	Motif              string          `gorm:"type:text" json:"motif"`
	ProjectDocumentKey string          `gorm:"size:255" json:"project_document_key,omitempty"`
	Status             Status          `gorm:"size:16;not null;default:'pending';index:idx_loan_requests_owner_status" json:"status"`
	PaymentKey         string          `gorm:"size:12;index:idx_loan_requests_payment_key" json:"-"`
	RepaymentMonths    int             `gorm:"not null" json:"repayment_months"`
	RequestedAt        time.Time       `gorm:"not null" json:"requested_at"`
	ValidatedAt        *time.Time      `json:"validated_at,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanRequest) TableName() string { return "loan_requests" }

// New builds a pending request; the advance is derived from amount and rate.
func New(requestID, ownerID string, amount, rate decimal.Decimal, months int, motif string, now time.Time) *LoanRequest {
	l := &LoanRequest{
		RequestID:       requestID,
		OwnerID:         ownerID,
		AdvanceRate:     rate,
		Motif:           motif,
		Status:          StatusPending,
		RepaymentMonths: months,
		RequestedAt:     now,
	}
	l.SetAmount(amount)
	return l
}

// SetAmount is the only way to change Amount; it keeps AdvanceAmount in sync.
func (l *LoanRequest) SetAmount(amount decimal.Decimal) {
	l.Amount = money.Normalize(amount)
	l.AdvanceAmount = money.ComputeAdvance(l.Amount, l.AdvanceRate)
}

// Reference is the human-facing loan number, e.g. ECO-000042.
func (l *LoanRequest) Reference() string { return fmt.Sprintf("ECO-%06d", l.ID) }

// RepaymentEndDate is nil until the loan is paid out.
func (l *LoanRequest) RepaymentEndDate() *time.Time {
	if l.PaidAt == nil {
		return nil
	}
	end := l.PaidAt.AddDate(0, 0, l.RepaymentMonths*daysPerRepaymentMonth)
	return &end
}

// CheckInvariants reports the first broken entity invariant, if any.
func (l *LoanRequest) CheckInvariants() error {
	if !l.Status.Valid() {
		return fmt.Errorf("unknown status %q", l.Status)
	}
	if l.Status.HoldsKey() != (l.PaymentKey != "") {
		return fmt.Errorf("payment key presence does not match status %s", l.Status)
	}
	if want := money.ComputeAdvance(l.Amount, l.AdvanceRate); !want.Equal(l.AdvanceAmount) {
		return fmt.Errorf("advance %s does not match %s x %s", l.AdvanceAmount, l.Amount, l.AdvanceRate)
	}
	return nil
}
