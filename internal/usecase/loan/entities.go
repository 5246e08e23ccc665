package loan

import (
	"time"

	domain "ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// Policy holds the externally configured business limits.
type Policy struct {
	MinAmount              decimal.Decimal
	MaxAmount              decimal.Decimal
	AdvanceRate            decimal.Decimal
	MinRepaymentMonths     int
	MaxRepaymentMonths     int
	DefaultRepaymentMonths int
	// Submissions need a complete, validated profile (the manager is exempt).
	RequireValidatedProfile bool

	BankName    string
	ManagerName string
}

type SubmitInput struct {
	OwnerID            string
	Amount             decimal.Decimal
	Motif              string
	RepaymentMonths    int // 0 means policy default
	ProjectDocumentKey string
}

type ConfirmPaymentInput struct {
	RequestID  string
	EnteredKey string
	ApproverID string
}

type LoanDTO struct {
	RequestID        string          `json:"request_id"`
	Reference        string          `json:"reference"`
	OwnerID          string          `json:"owner_id"`
	Amount           decimal.Decimal `json:"amount"`
	AdvanceRate      decimal.Decimal `json:"advance_rate"`
	AdvanceAmount    decimal.Decimal `json:"advance_amount"`
	Motif            string          `json:"motif"`
	Status           string          `json:"status"`
	PaymentKey       string          `json:"payment_key,omitempty"`
	RepaymentMonths  int             `json:"repayment_months"`
	RequestedAt      time.Time       `json:"requested_at"`
	ValidatedAt      *time.Time      `json:"validated_at,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	RepaymentEndDate *time.Time      `json:"repayment_end_date,omitempty"`
}

// WithoutKey returns a copy safe to show to the borrower.
func (d LoanDTO) WithoutKey() LoanDTO {
	d.PaymentKey = ""
	return d
}

// SummaryDTO is the per-client dashboard: request counts and total paid out.
type SummaryDTO struct {
	OwnerID    string          `json:"owner_id"`
	Total      int             `json:"total_requests"`
	Paid       int             `json:"paid_requests"`
	InProgress int             `json:"in_progress_requests"`
	TotalPaid  decimal.Decimal `json:"total_amount_paid"`
}

type PaymentDTO struct {
	PaymentID   string    `json:"payment_id"`
	RequestID   string    `json:"request_id"`
	ValidatedBy string    `json:"validated_by"`
	Matched     bool      `json:"matched"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toDTO(l *domain.LoanRequest) *LoanDTO {
	return &LoanDTO{
		RequestID:        l.RequestID,
		Reference:        l.Reference(),
		OwnerID:          l.OwnerID,
		Amount:           l.Amount,
		AdvanceRate:      l.AdvanceRate,
		AdvanceAmount:    l.AdvanceAmount,
		Motif:            l.Motif,
		Status:           string(l.Status),
		PaymentKey:       l.PaymentKey,
		RepaymentMonths:  l.RepaymentMonths,
		RequestedAt:      l.RequestedAt,
		ValidatedAt:      l.ValidatedAt,
		PaidAt:           l.PaidAt,
		RepaymentEndDate: l.RepaymentEndDate(),
	}
}

func toPaymentDTO(p *payment.Payment, requestID string) *PaymentDTO {
	return &PaymentDTO{
		PaymentID:   p.PaymentID,
		RequestID:   requestID,
		ValidatedBy: p.ValidatedBy,
		Matched:     p.Matched,
		RecordedAt:  p.RecordedAt,
	}
}
