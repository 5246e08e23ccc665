package notification

import "ecobank-loans/internal/domain/loan"

const (
	TemplateWelcome          = "account_welcome"
	TemplateAccountValidated = "account_validated"
	TemplateLoanSubmitted    = "loan_submitted"
	TemplateLoanPending      = "loan_pending"
	TemplateLoanApproved     = "loan_approved"
	TemplateLoanRejected     = "loan_rejected"
	TemplateLoanPaid         = "loan_paid"
	TemplateLoanActive       = "loan_active"
	TemplateNewMessage       = "new_message"
)

// Templates lists every key a renderer must know.
var Templates = []string{
	TemplateWelcome, TemplateAccountValidated, TemplateLoanSubmitted, TemplateLoanPending,
	TemplateLoanApproved, TemplateLoanRejected, TemplateLoanPaid, TemplateLoanActive,
	TemplateNewMessage,
}

var statusTemplates = map[loan.Status]string{
	loan.StatusPending:   TemplateLoanPending,
	loan.StatusValidated: TemplateLoanApproved,
	loan.StatusRejected:  TemplateLoanRejected,
	loan.StatusPaid:      TemplateLoanPaid,
	loan.StatusActive:    TemplateLoanActive,
}

// TemplateForStatus maps a new loan status to its template. ok is false for
// statuses without one, which callers treat as "nothing to send".
func TemplateForStatus(s loan.Status) (key string, ok bool) {
	key, ok = statusTemplates[s]
	return key, ok
}
