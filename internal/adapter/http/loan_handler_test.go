package http

import (
	"net/http"
	"strings"
	"testing"

	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/usecase/loan"
)

const (
	borrowerID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	strangerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	unknownID  = "dddddddddddddddddddddddddddddddd"
)

func newLoanServer(t *testing.T) *testServer {
	s := newTestServer(t)
	s.seedAccount(t, managerID, "manager", true)
	s.seedAccount(t, borrowerID, "borrower", true)
	s.seedAccount(t, strangerID, "stranger", true)
	return s
}

func (s *testServer) submit(t *testing.T) loan.LoanDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/loans", borrowerID, map[string]any{
		"amount": 10000000,
		"motif":  "Shop extension",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[loan.LoanDTO](t, rec)
}

func (s *testServer) approve(t *testing.T, requestID string) loan.LoanDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/loans/"+requestID+"/approve", managerID, nil)
	expectStatus(t, rec, http.StatusOK)
	return decode[loan.LoanDTO](t, rec)
}

func TestCreateLoan(t *testing.T) {
	s := newLoanServer(t)

	dto := s.submit(t)
	if dto.Status != "pending" {
		t.Fatalf("status = %q, want pending", dto.Status)
	}
	if dto.PaymentKey != "" {
		t.Fatalf("pending loan exposes key %q", dto.PaymentKey)
	}
	if dto.RepaymentMonths != 84 {
		t.Fatalf("repayment months = %d, want default 84", dto.RepaymentMonths)
	}
	if got := dto.AdvanceAmount.StringFixed(2); got != "1500000.00" {
		t.Fatalf("advance = %s", got)
	}
	if keys := s.notes.Keys(); len(keys) != 1 || keys[0] != notification.TemplateLoanSubmitted {
		t.Fatalf("notifications = %v", keys)
	}

	// second request while the first is in progress
	rec := s.do(t, http.MethodPost, "/loans", borrowerID, map[string]any{"amount": 6000000, "motif": "Again"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestCreateLoan_Invalid(t *testing.T) {
	s := newLoanServer(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing motif", map[string]any{"amount": 10000000}, http.StatusUnprocessableEntity},
		{"three decimals", map[string]any{"amount": 10000000.123, "motif": "x"}, http.StatusUnprocessableEntity},
		{"below minimum", map[string]any{"amount": 1000, "motif": "x"}, http.StatusUnprocessableEntity},
		{"months out of range", map[string]any{"amount": 10000000, "motif": "x", "repayment_months": 6}, http.StatusUnprocessableEntity},
		{"malformed", "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/loans", borrowerID, tt.body)
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestCreateLoan_NeedsActor(t *testing.T) {
	s := newLoanServer(t)
	rec := s.do(t, http.MethodPost, "/loans", "", map[string]any{"amount": 10000000, "motif": "x"})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestCreateLoan_UnvalidatedProfile(t *testing.T) {
	s := newTestServer(t)
	s.seedAccount(t, borrowerID, "borrower", false)

	rec := s.do(t, http.MethodPost, "/loans", borrowerID, map[string]any{"amount": 10000000, "motif": "x"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestApprove(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)

	rec := s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/approve", borrowerID, nil)
	expectStatus(t, rec, http.StatusForbidden)

	approved := s.approve(t, created.RequestID)
	if approved.Status != "validated" || len(approved.PaymentKey) != 12 {
		t.Fatalf("approved = %+v", approved)
	}

	// owner sees the loan without its key
	rec = s.do(t, http.MethodGet, "/loans/"+created.RequestID, borrowerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[loan.LoanDTO](t, rec); got.PaymentKey != "" || got.Status != "validated" {
		t.Fatalf("owner view = %+v", got)
	}

	rec = s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/approve", managerID, nil)
	expectStatus(t, rec, http.StatusConflict)
}

func TestReject(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)

	rec := s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/reject", managerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[loan.LoanDTO](t, rec); got.Status != "rejected" {
		t.Fatalf("status = %q", got.Status)
	}

	rec = s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/activate", managerID, nil)
	expectStatus(t, rec, http.StatusConflict)
}

func TestGetLoan_Visibility(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)

	rec := s.do(t, http.MethodGet, "/loans/"+created.RequestID, strangerID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodGet, "/loans/"+unknownID, managerID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodGet, "/accounts/"+borrowerID+"/loans", strangerID, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodGet, "/accounts/"+borrowerID+"/loans", borrowerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]loan.LoanDTO](t, rec); len(list) != 1 || list[0].RequestID != created.RequestID {
		t.Fatalf("list = %+v", list)
	}
}

func TestConfirmPayment(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)
	approved := s.approve(t, created.RequestID)
	path := "/loans/" + created.RequestID + "/payments"

	rec := s.do(t, http.MethodPost, path, borrowerID, map[string]any{"payment_key": approved.PaymentKey})
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodPost, path, managerID, map[string]any{"payment_key": "WRONGKEY0000"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	miss := decode[ErrorResponse](t, rec)
	if miss.PaymentID == "" {
		t.Fatalf("mismatch without payment_id: %+v", miss)
	}

	// a blank entry is a recorded miss too
	rec = s.do(t, http.MethodPost, path, managerID, map[string]any{"payment_key": ""})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if miss := decode[ErrorResponse](t, rec); miss.PaymentID == "" {
		t.Fatalf("blank key without payment_id: %+v", miss)
	}

	rec = s.do(t, http.MethodPost, path, managerID, map[string]any{"payment_key": " " + approved.PaymentKey + " "})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[loan.PaymentDTO](t, rec); !got.Matched || got.ValidatedBy != managerID {
		t.Fatalf("payment = %+v", got)
	}

	rec = s.do(t, http.MethodGet, path, managerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]loan.PaymentDTO](t, rec); len(list) != 3 {
		t.Fatalf("attempts = %d, want 3", len(list))
	}

	rec = s.do(t, http.MethodGet, "/loans/"+created.RequestID, borrowerID, nil)
	if got := decode[loan.LoanDTO](t, rec); got.Status != "paid" || got.PaidAt == nil || got.RepaymentEndDate == nil {
		t.Fatalf("after payment = %+v", got)
	}

	// a paid loan takes no further key entries
	rec = s.do(t, http.MethodPost, path, managerID, map[string]any{"payment_key": approved.PaymentKey})
	expectStatus(t, rec, http.StatusConflict)
}

func TestCertificate(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)
	path := "/loans/" + created.RequestID + "/certificate"

	rec := s.do(t, http.MethodGet, path, borrowerID, nil)
	expectStatus(t, rec, http.StatusConflict)

	approved := s.approve(t, created.RequestID)
	rec = s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/payments", managerID,
		map[string]any{"payment_key": approved.PaymentKey})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, path, strangerID, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodGet, path, borrowerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Fatal("body is not a PDF")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "certificate_") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestActivate(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)
	approved := s.approve(t, created.RequestID)

	rec := s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/activate", managerID, nil)
	expectStatus(t, rec, http.StatusConflict)

	s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/payments", managerID,
		map[string]any{"payment_key": approved.PaymentKey})
	rec = s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/activate", managerID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[loan.LoanDTO](t, rec); got.Status != "active" {
		t.Fatalf("status = %q", got.Status)
	}

	// an active loan frees the borrower for a new request
	s.submit(t)
}

func TestAccountSummary(t *testing.T) {
	s := newLoanServer(t)
	created := s.submit(t)
	approved := s.approve(t, created.RequestID)
	rec := s.do(t, http.MethodPost, "/loans/"+created.RequestID+"/payments", managerID,
		map[string]any{"payment_key": approved.PaymentKey})
	expectStatus(t, rec, http.StatusOK)
	s.submit(t)

	rec = s.do(t, http.MethodGet, "/accounts/"+borrowerID+"/summary", strangerID, nil)
	expectStatus(t, rec, http.StatusForbidden)

	for _, actor := range []string{borrowerID, managerID} {
		rec = s.do(t, http.MethodGet, "/accounts/"+borrowerID+"/summary", actor, nil)
		expectStatus(t, rec, http.StatusOK)
		got := decode[loan.SummaryDTO](t, rec)
		if got.Total != 2 || got.Paid != 1 || got.InProgress != 1 {
			t.Fatalf("summary for %s = %+v", actor, got)
		}
		if v := got.TotalPaid.StringFixed(2); v != "10000000.00" {
			t.Fatalf("total paid = %s", v)
		}
	}
}
