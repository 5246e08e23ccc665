package http

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestHex32Validation(t *testing.T) {
	type P struct {
		AccountID string `json:"account_id" validate:"hex32"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{AccountID: strings.Repeat("a", 32)}); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}
	for _, s := range []string{
		"",
		strings.Repeat("A", 32),
		"deadbeef",
		strings.Repeat("g", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x",
	} {
		err := cv.Validate(P{AccountID: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "account_id", "32-char lowercase hex") {
			t.Fatalf("expected hex32 message for %q, got: %+v", s, fe)
		}
	}
}

func TestDecimalAmountValidation(t *testing.T) {
	type P struct {
		Amount decimal.Decimal `json:"amount" validate:"required,dgt=0,dec2"`
	}
	cv := NewValidator()

	for _, v := range []string{"5000000", "5000000.50", "5000000.010", "0.01", "99999999999999999.99"} {
		if err := cv.Validate(P{Amount: decimal.RequireFromString(v)}); err != nil {
			t.Fatalf("expected amount OK for %s, got %v", v, err)
		}
	}

	if fe := ToFieldErrors(cv.Validate(P{})); !containsFieldMsg(fe, "amount", "is required") {
		t.Fatalf("missing amount: %+v", fe)
	}
	for v, msg := range map[string]string{
		"0":                  "greater than 0",
		"-10":                "greater than 0",
		"-0.000000000000001": "greater than 0",
		"12.345":             "at most 2 decimal places",
		"5000000.0000000001": "at most 2 decimal places",
	} {
		err := cv.Validate(P{Amount: decimal.RequireFromString(v)})
		if err == nil {
			t.Fatalf("expected error for %s", v)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "amount", msg) {
			t.Fatalf("expected %q for %s, got %+v", msg, v, fe)
		}
	}
}

func TestFieldMessages(t *testing.T) {
	type P struct {
		Username string `json:"username" validate:"required"`
		Motif    string `json:"motif" validate:"max=5"`
		Months   int    `json:"repayment_months" validate:"gte=12,max=300"`
		Email    string `json:"email" validate:"omitempty,email"`
		Marital  string `json:"marital_status" validate:"omitempty,oneof=single married"`
		Birth    string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
		Untagged string `validate:"required"`
	}
	err := NewValidator().Validate(P{
		Motif:   "too long",
		Months:  6,
		Email:   "nope",
		Marital: "complicated",
		Birth:   "17/05/1990",
	})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	fe := ToFieldErrors(err)

	want := map[string]string{
		"username":         "is required",
		"motif":            "at most 5 characters",
		"repayment_months": "greater than or equal to 12",
		"email":            "valid email address",
		"marital_status":   "one of: single married",
		"birth_date":       "formatted as 2006-01-02",
		"Untagged":         "is required",
	}
	for field, msg := range want {
		if !containsFieldMsg(fe, field, msg) {
			t.Errorf("missing %q for %s: %+v", msg, field, fe)
		}
	}

	fe = ToFieldErrors(NewValidator().Validate(struct {
		Months int `json:"months" validate:"max=300"`
	}{Months: 400}))
	if !containsFieldMsg(fe, "months", "at most 300") || containsFieldMsg(fe, "months", "characters") {
		t.Fatalf("numeric max message: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 || fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe)
	}
}
