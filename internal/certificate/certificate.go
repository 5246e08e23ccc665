// Package certificate renders the loan certificate handed to a borrower once
// the loan has been paid out.
package certificate

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ecobank-loans/pkg/money"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	dateLayout   = "02/01/2006"
	motifMaxRune = 200
	labelWidth   = 55.0
	rowHeight    = 8.0
)

var (
	colorPrimary = [3]int{31, 78, 121}
	colorAccent  = [3]int{0, 135, 81}
	colorLabelBg = [3]int{232, 245, 232}
	colorGrid    = [3]int{222, 226, 230}
)

// Certificate is everything printed on the document. Nil dates print as
// "not provided".
type Certificate struct {
	Reference   string
	BankName    string
	ManagerName string

	BorrowerName  string
	BirthDate     *time.Time
	BirthPlace    string
	Profession    string
	MaritalStatus string
	Address       string

	Amount           decimal.Decimal
	AdvanceAmount    decimal.Decimal
	AdvanceRate      decimal.Decimal
	RepaymentMonths  int
	Motif            string
	RequestedAt      time.Time
	ValidatedAt      *time.Time
	PaidAt           *time.Time
	RepaymentEndDate *time.Time

	IssuedAt time.Time
}

func (c Certificate) validate() error {
	if c.Reference == "" {
		return errors.New("certificate: reference is required")
	}
	if strings.TrimSpace(c.BorrowerName) == "" {
		return errors.New("certificate: borrower name is required")
	}
	return nil
}

// Render writes an A4 PDF to w.
func Render(w io.Writer, c Certificate) error {
	if err := c.validate(); err != nil {
		return err
	}
	bank := c.BankName
	if bank == "" {
		bank = "ECOBANK"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Loan certificate "+c.Reference), false)
	pdf.SetAuthor(tr(bank), false)
	pdf.SetSubject("Bank loan certificate", false)
	pdf.SetCreationDate(c.IssuedAt)
	pdf.SetMargins(25, 30, 25)
	pdf.SetAutoPageBreak(true, 30)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	// header
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorPrimary)
	pdf.CellFormat(width, 8, tr(strings.ToUpper(bank)), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.SetLineWidth(0.8)
	y := pdf.GetY() + 2
	pdf.Line(left, y, pageW-right, y)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(width, 12, tr("BANK LOAN CERTIFICATE"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorAccent)
	pdf.CellFormat(width, 9, tr("Credit grant certificate"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, colorPrimary)
	pdf.SetFillColor(248, 249, 250)
	pdf.CellFormat(width, 10, tr("FILE REFERENCE: "+c.Reference), "1", 1, "L", true, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(width, 6, tr(fmt.Sprintf(
		"This certificate is issued at the request of the borrower for all legal purposes. "+
			"%s hereby certifies that it has granted a loan under the conditions detailed below.", bank)),
		"", "J", false)
	pdf.Ln(4)

	section(pdf, tr, width, "I. BORROWER")
	table(pdf, tr, width, [][2]string{
		{"Full name", c.BorrowerName},
		{"Date of birth", formatDate(c.BirthDate)},
		{"Place of birth", orMissing(c.BirthPlace)},
		{"Profession", orMissing(c.Profession)},
		{"Marital status", orMissing(c.MaritalStatus)},
		{"Address", orMissing(c.Address)},
	})

	section(pdf, tr, width, "II. LOAN TERMS")
	requested := c.RequestedAt
	table(pdf, tr, width, [][2]string{
		{"Request date", formatDate(&requested)},
		{"Validation date", formatDate(c.ValidatedAt)},
		{"Disbursement date", formatDate(c.PaidAt)},
		{"Amount granted", money.Format(c.Amount)},
		{fmt.Sprintf("Advance (%s%%)", c.AdvanceRate.Shift(2).String()), money.Format(c.AdvanceAmount)},
		{"Repayment period", Duration(c.RepaymentMonths)},
		{"Repayment deadline", formatDate(c.RepaymentEndDate)},
		{"Purpose", truncate(c.Motif, motifMaxRune)},
	})

	section(pdf, tr, width, "III. DECLARATION")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(width, 6, tr(fmt.Sprintf(
		"The borrower undertakes to repay the amount above within %d months of disbursement. "+
			"Issued on %s.", c.RepaymentMonths, c.IssuedAt.Format(dateLayout))),
		"", "J", false)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, colorPrimary)
	pdf.CellFormat(width, 6, tr("The loan manager"), "", 1, "R", false, 0, "")
	if c.ManagerName != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(width, 6, tr(c.ManagerName), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("certificate: %w", err)
	}
	return pdf.Output(w)
}

// Duration spells a month count out, e.g. "84 months (7 year(s))".
func Duration(months int) string {
	years, rest := months/12, months%12
	var b strings.Builder
	fmt.Fprintf(&b, "%d months", months)
	switch {
	case years > 0 && rest > 0:
		fmt.Fprintf(&b, " (%d year(s) and %d months)", years, rest)
	case years > 0:
		fmt.Fprintf(&b, " (%d year(s))", years)
	}
	return b.String()
}

func section(pdf *fpdf.Fpdf, tr func(string) string, width float64, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	setText(pdf, colorPrimary)
	pdf.CellFormat(width, 9, tr(title), "", 1, "L", false, 0, "")
}

func table(pdf *fpdf.Fpdf, tr func(string) string, width float64, rows [][2]string) {
	pdf.SetDrawColor(colorGrid[0], colorGrid[1], colorGrid[2])
	pdf.SetLineWidth(0.2)
	pdf.SetFillColor(colorLabelBg[0], colorLabelBg[1], colorLabelBg[2])
	pdf.SetTextColor(0, 0, 0)
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelWidth, rowHeight, tr(r[0]), "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(width-labelWidth, rowHeight, tr(r[1]), "1", 1, "L", false, 0, "")
	}
}

func setText(pdf *fpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "not provided"
	}
	return t.Format(dateLayout)
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
