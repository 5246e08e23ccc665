package notification

import (
	"testing"

	"ecobank-loans/internal/domain/loan"
)

func TestTemplateForStatus_TotalOverStatuses(t *testing.T) {
	want := map[loan.Status]string{
		loan.StatusPending:   TemplateLoanPending,
		loan.StatusValidated: TemplateLoanApproved,
		loan.StatusRejected:  TemplateLoanRejected,
		loan.StatusPaid:      TemplateLoanPaid,
		loan.StatusActive:    TemplateLoanActive,
	}
	for _, s := range loan.Statuses {
		got, ok := TemplateForStatus(s)
		if !ok || got != want[s] {
			t.Errorf("%s: got (%q, %v) want %q", s, got, ok, want[s])
		}
	}
	if _, ok := TemplateForStatus("archived"); ok {
		t.Fatal("unmapped status must report ok=false")
	}
}
