package loan

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecobank-loans/internal/certificate"
	"ecobank-loans/internal/domain/account"
	domain "ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/domain/payment"
	"ecobank-loans/internal/domain/uow"
	"ecobank-loans/pkg/id"
	"ecobank-loans/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxKeyAttempts bounds regeneration when a fresh payment key is already taken.
const maxKeyAttempts = 5

var (
	errNoUnitOfWork      = errors.New("loan usecase: no unit of work configured")
	errKeySpaceExhausted = errors.New("could not allocate a unique payment key")
)

// Usecase is the only writer of LoanRequest status and the fields derived from it.
type Usecase struct {
	loans    domain.Repository
	payments payment.Repository
	accounts account.Repository
	uow      uow.UnitOfWork
	auth     account.Authorizer
	policy   Policy

	notifier notification.Notifier
	log      *zap.Logger
	now      func() time.Time
	newKey   func() (string, error)
}

type Option func(*Usecase)

func WithNotifier(n notification.Notifier) Option { return func(u *Usecase) { u.notifier = n } }
func WithLogger(l *zap.Logger) Option             { return func(u *Usecase) { u.log = l } }
func WithClock(now func() time.Time) Option       { return func(u *Usecase) { u.now = now } }

// WithKeyGenerator replaces id.NewPaymentKey.
func WithKeyGenerator(gen func() (string, error)) Option { return func(u *Usecase) { u.newKey = gen } }

func NewUsecase(
	loans domain.Repository,
	payments payment.Repository,
	accounts account.Repository,
	tx uow.UnitOfWork,
	auth account.Authorizer,
	policy Policy,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		loans:    loans,
		payments: payments,
		accounts: accounts,
		uow:      tx,
		auth:     auth,
		policy:   policy,
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
		newKey:   id.NewPaymentKey,
	}
	if u.auth == nil {
		u.auth = account.StaticManager("")
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*LoanDTO, error) {
	if u.uow == nil {
		return nil, errNoUnitOfWork
	}
	months := in.RepaymentMonths
	if months == 0 {
		months = u.policy.DefaultRepaymentMonths
	}
	amount := money.Normalize(in.Amount)
	motif := strings.TrimSpace(in.Motif)
	if err := u.validateSubmit(in.OwnerID, amount, months, motif); err != nil {
		return nil, err
	}
	if in.ProjectDocumentKey != "" && !account.OwnsDocument(in.OwnerID, account.DocLoanProject, in.ProjectDocumentKey) {
		return nil, fmt.Errorf("%w: project document must be one of the owner's loan project uploads", domain.ErrValidation)
	}

	var created *domain.LoanRequest
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// Locking the owner serializes concurrent submissions of the same account.
		owner, err := r.Accounts.GetByAccountIDForUpdate(ctx, in.OwnerID)
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("%w: unknown owner %s", domain.ErrValidation, in.OwnerID)
		}
		if err != nil {
			return err
		}
		if u.policy.RequireValidatedProfile && !u.auth.IsManager(owner.AccountID) {
			if !owner.Profile.IsComplete() {
				return fmt.Errorf("%w: profile must be complete before requesting a loan", domain.ErrValidation)
			}
			if !owner.Profile.IsValidated {
				return fmt.Errorf("%w: profile has not been validated yet", domain.ErrValidation)
			}
		}

		// Block if the owner already has a pending or validated request.
		existing, err := r.Loans.GetInProgressByOwnerID(ctx, in.OwnerID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: owner %s already has a request in progress: %s",
				domain.ErrValidation, in.OwnerID, existing.RequestID)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		l := domain.New(id.NewID32(), in.OwnerID, amount, u.policy.AdvanceRate, months, motif, u.now())
		l.ProjectDocumentKey = in.ProjectDocumentKey
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan request submitted",
		zap.String("request_id", created.RequestID),
		zap.String("owner_id", created.OwnerID),
		zap.String("amount", created.Amount.StringFixed(money.Places)))
	u.notifyOwner(ctx, created, notification.TemplateLoanSubmitted, nil)
	return toDTO(created), nil
}

func (u *Usecase) validateSubmit(ownerID string, amount decimal.Decimal, months int, motif string) error {
	switch {
	case ownerID == "":
		return fmt.Errorf("%w: owner is required", domain.ErrValidation)
	case !amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	case amount.LessThan(u.policy.MinAmount):
		return fmt.Errorf("%w: amount below minimum %s", domain.ErrValidation, money.Format(u.policy.MinAmount))
	case !u.policy.MaxAmount.IsZero() && amount.GreaterThan(u.policy.MaxAmount):
		return fmt.Errorf("%w: amount above maximum %s", domain.ErrValidation, money.Format(u.policy.MaxAmount))
	case motif == "":
		return fmt.Errorf("%w: motif is required", domain.ErrValidation)
	case months < u.policy.MinRepaymentMonths || (u.policy.MaxRepaymentMonths > 0 && months > u.policy.MaxRepaymentMonths):
		return fmt.Errorf("%w: repayment months must be within [%d, %d]",
			domain.ErrValidation, u.policy.MinRepaymentMonths, u.policy.MaxRepaymentMonths)
	case months <= 0:
		return fmt.Errorf("%w: repayment months must be positive", domain.ErrValidation)
	}
	return nil
}

// Approve moves a pending request to validated and issues its payment key.
// An already issued key is kept.
func (u *Usecase) Approve(ctx context.Context, requestID string) (*LoanDTO, error) {
	return u.transition(ctx, requestID, domain.StatusValidated, func(r uow.Repos, l *domain.LoanRequest, now time.Time) error {
		if l.PaymentKey == "" {
			key, err := u.uniquePaymentKey(ctx, r.Loans)
			if err != nil {
				return err
			}
			l.PaymentKey = key
		}
		l.ValidatedAt = &now
		return nil
	})
}

func (u *Usecase) Reject(ctx context.Context, requestID string) (*LoanDTO, error) {
	return u.transition(ctx, requestID, domain.StatusRejected, nil)
}

func (u *Usecase) Activate(ctx context.Context, requestID string) (*LoanDTO, error) {
	return u.transition(ctx, requestID, domain.StatusActive, nil)
}

// transition runs one status change under the loan row lock. apply mutates a
// copy, so the caller's entity stays untouched when anything fails.
func (u *Usecase) transition(
	ctx context.Context,
	requestID string,
	to domain.Status,
	apply func(r uow.Repos, l *domain.LoanRequest, now time.Time) error,
) (*LoanDTO, error) {
	if u.uow == nil {
		return nil, errNoUnitOfWork
	}

	var (
		out  *domain.LoanRequest
		from domain.Status
	)
	err := u.uow.WithinLoanTx(ctx, requestID, func(r uow.Repos, l *domain.LoanRequest) error {
		if !l.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, l.Status, to)
		}
		from = l.Status
		next := *l
		if apply != nil {
			if err := apply(r, &next, u.now()); err != nil {
				return err
			}
		}
		next.Status = to
		if err := r.Loans.UpdateStatus(ctx, &next, from); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan request status changed",
		zap.String("request_id", out.RequestID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	u.notifyTransition(ctx, out, from, to)
	return toDTO(out), nil
}

// ConfirmPayment records one key-entry attempt by the manager. A matching key
// moves the request to paid. A mismatch, a blank key included, still records
// the attempt; the DTO is returned together with ErrKeyMismatch.
func (u *Usecase) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*PaymentDTO, error) {
	if !u.auth.IsManager(in.ApproverID) {
		return nil, fmt.Errorf("%w: %q may not confirm payments", account.ErrForbidden, in.ApproverID)
	}
	if u.uow == nil {
		return nil, errNoUnitOfWork
	}

	var (
		attempt *payment.Payment
		paid    *domain.LoanRequest
	)
	err := u.uow.WithinLoanTx(ctx, in.RequestID, func(r uow.Repos, l *domain.LoanRequest) error {
		if l.Status != domain.StatusValidated {
			return fmt.Errorf("%w: cannot confirm payment while %s", domain.ErrInvalidTransition, l.Status)
		}
		now := u.now()
		attempt = &payment.Payment{
			PaymentID:     id.NewID32(),
			LoanRequestID: l.ID,
			EnteredKey:    in.EnteredKey,
			ValidatedBy:   in.ApproverID,
			Matched:       keysMatch(in.EnteredKey, l.PaymentKey),
			RecordedAt:    now,
		}
		if err := r.Payments.Create(ctx, attempt); err != nil {
			return err
		}
		if !attempt.Matched {
			// commit the attempt, leave the loan as is
			return nil
		}
		next := *l
		next.Status = domain.StatusPaid
		next.PaidAt = &now
		if err := r.Loans.UpdateStatus(ctx, &next, domain.StatusValidated); err != nil {
			return err
		}
		paid = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toPaymentDTO(attempt, in.RequestID)
	if !attempt.Matched {
		u.log.Warn("payment key mismatch",
			zap.String("request_id", in.RequestID),
			zap.String("payment_id", attempt.PaymentID),
			zap.String("validated_by", in.ApproverID))
		return dto, fmt.Errorf("%w: attempt %s on %s", domain.ErrKeyMismatch, attempt.PaymentID, in.RequestID)
	}

	u.log.Info("loan request paid",
		zap.String("request_id", paid.RequestID),
		zap.String("payment_id", attempt.PaymentID))
	u.notifyTransition(ctx, paid, domain.StatusValidated, domain.StatusPaid)
	return dto, nil
}

func keysMatch(entered, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(entered)), []byte(stored)) == 1
}

// NotifyTransition sends the template mapped to newStatus. Equal statuses and
// statuses without a template send nothing.
func (u *Usecase) NotifyTransition(ctx context.Context, requestID string, newStatus, oldStatus domain.Status) error {
	if newStatus == oldStatus {
		return nil
	}
	if _, ok := notification.TemplateForStatus(newStatus); !ok {
		return nil
	}
	l, err := u.loans.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	u.notifyTransition(ctx, l, oldStatus, newStatus)
	return nil
}

func (u *Usecase) Get(ctx context.Context, requestID string) (*LoanDTO, error) {
	l, err := u.loans.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) ListByOwner(ctx context.Context, ownerID string) ([]LoanDTO, error) {
	rows, err := u.loans.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

// Summary counts the owner's requests and sums the amounts already paid out.
func (u *Usecase) Summary(ctx context.Context, ownerID string) (*SummaryDTO, error) {
	rows, err := u.loans.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := &SummaryDTO{OwnerID: ownerID, Total: len(rows), TotalPaid: decimal.Zero}
	for _, l := range rows {
		switch {
		case l.Status.Paid():
			out.Paid++
			out.TotalPaid = out.TotalPaid.Add(l.Amount)
		case l.Status.InProgress():
			out.InProgress++
		}
	}
	out.TotalPaid = money.Normalize(out.TotalPaid)
	return out, nil
}

func (u *Usecase) ListPayments(ctx context.Context, requestID string) ([]PaymentDTO, error) {
	l, err := u.loans.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	rows, err := u.payments.ListByLoanRequestID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toPaymentDTO(&rows[i], requestID))
	}
	return out, nil
}

// Certificate renders the loan certificate PDF for the owner or the manager.
// It returns the document and a suggested file name.
func (u *Usecase) Certificate(ctx context.Context, requestID, requesterID string) ([]byte, string, error) {
	l, err := u.loans.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if l.OwnerID != requesterID && !u.auth.IsManager(requesterID) {
		return nil, "", fmt.Errorf("%w: certificate of %s", account.ErrForbidden, requestID)
	}
	if l.Status != domain.StatusPaid && l.Status != domain.StatusActive {
		return nil, "", fmt.Errorf("%w: status is %s", domain.ErrNotPaid, l.Status)
	}
	owner, err := u.accounts.GetByAccountID(ctx, l.OwnerID)
	if err != nil {
		return nil, "", err
	}
	p := owner.Profile
	if p == nil || p.FirstName == "" || p.LastName == "" {
		return nil, "", fmt.Errorf("%w: borrower name is required on the certificate", account.ErrInvalidProfile)
	}

	c := certificate.Certificate{
		Reference:        l.Reference(),
		BankName:         u.policy.BankName,
		ManagerName:      u.policy.ManagerName,
		BorrowerName:     p.LastName + " " + p.FirstName,
		BirthDate:        p.BirthDate,
		BirthPlace:       p.BirthPlace,
		Profession:       p.Profession,
		MaritalStatus:    string(p.MaritalStatus),
		Address:          p.Address,
		Amount:           l.Amount,
		AdvanceAmount:    l.AdvanceAmount,
		AdvanceRate:      l.AdvanceRate,
		RepaymentMonths:  l.RepaymentMonths,
		Motif:            l.Motif,
		RequestedAt:      l.RequestedAt,
		ValidatedAt:      l.ValidatedAt,
		PaidAt:           l.PaidAt,
		RepaymentEndDate: l.RepaymentEndDate(),
		IssuedAt:         u.now(),
	}
	var buf bytes.Buffer
	if err := certificate.Render(&buf, c); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("certificate_%s.pdf", l.Reference()), nil
}

func (u *Usecase) uniquePaymentKey(ctx context.Context, loans domain.Repository) (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key, err := u.newKey()
		if err != nil {
			return "", err
		}
		taken, err := loans.PaymentKeyExists(ctx, key)
		if err != nil {
			return "", err
		}
		if !taken {
			return key, nil
		}
		u.log.Warn("payment key collision, regenerating", zap.Int("attempt", i+1))
	}
	return "", errKeySpaceExhausted
}

func (u *Usecase) notifyTransition(ctx context.Context, l *domain.LoanRequest, from, to domain.Status) {
	if from == to {
		return
	}
	key, ok := notification.TemplateForStatus(to)
	if !ok {
		return
	}
	u.notifyOwner(ctx, l, key, map[string]any{
		"OldStatus": string(from),
		"NewStatus": string(to),
	})
}

// notifyOwner never fails the caller; a lookup error only skips the message.
func (u *Usecase) notifyOwner(ctx context.Context, l *domain.LoanRequest, key string, extra map[string]any) {
	if u.notifier == nil {
		return
	}
	owner, err := u.accounts.GetByAccountID(ctx, l.OwnerID)
	if err != nil {
		u.log.Warn("notification skipped: owner lookup failed",
			zap.String("request_id", l.RequestID),
			zap.String("template", key),
			zap.Error(err))
		return
	}

	data := map[string]any{
		"Reference":       l.Reference(),
		"RequestID":       l.RequestID,
		"RecipientName":   owner.DisplayName(),
		"Amount":          money.Format(l.Amount),
		"AdvanceAmount":   money.Format(l.AdvanceAmount),
		"AdvancePercent":  l.AdvanceRate.Shift(2).String(),
		"RepaymentMonths": l.RepaymentMonths,
		"Status":          string(l.Status),
		"Motif":           l.Motif,
		"BankName":        u.policy.BankName,
		"ManagerName":     u.policy.ManagerName,
		"Date":            u.now().Format("02/01/2006 15:04"),
	}
	if end := l.RepaymentEndDate(); end != nil {
		data["RepaymentEndDate"] = end.Format("02/01/2006")
	}
	for k, v := range extra {
		data[k] = v
	}

	u.notifier.Dispatch(ctx, notification.Outbound{
		Recipient: notification.Recipient{
			AccountID: owner.AccountID,
			Email:     owner.Email,
			Name:      owner.DisplayName(),
		},
		TemplateKey: key,
		Data:        data,
	})
}
