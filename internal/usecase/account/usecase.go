package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	domain "ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/domain/uow"
	"ecobank-loans/pkg/id"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// DefaultMaxUpload caps a single KYC document.
const DefaultMaxUpload int64 = 5 << 20

var ErrStorageDisabled = errors.New("document storage is not configured")

var (
	imageTypes    = []string{"image/jpeg", "image/png", "image/webp"}
	documentTypes = append([]string{"application/pdf"}, imageTypes...)
)

type Usecase struct {
	accounts  domain.Repository
	uow       uow.UnitOfWork
	store     domain.DocumentStore
	auth      domain.Authorizer
	notifier  notification.Notifier
	log       *zap.Logger
	now       func() time.Time
	maxUpload int64
}

type Option func(*Usecase)

func WithDocumentStore(s domain.DocumentStore) Option { return func(u *Usecase) { u.store = s } }
func WithNotifier(n notification.Notifier) Option    { return func(u *Usecase) { u.notifier = n } }
func WithLogger(l *zap.Logger) Option                { return func(u *Usecase) { u.log = l } }
func WithClock(now func() time.Time) Option          { return func(u *Usecase) { u.now = now } }
func WithMaxUpload(n int64) Option                   { return func(u *Usecase) { u.maxUpload = n } }

func NewUsecase(accounts domain.Repository, tx uow.UnitOfWork, auth domain.Authorizer, opts ...Option) *Usecase {
	u := &Usecase{
		accounts:  accounts,
		uow:       tx,
		auth:      auth,
		log:       zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		maxUpload: DefaultMaxUpload,
	}
	if u.auth == nil {
		u.auth = domain.StaticManager("")
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// CreateAccountWithProfile registers an account and its (possibly partial)
// profile in one transaction.
func (u *Usecase) CreateAccountWithProfile(ctx context.Context, in RegisterInput) (*AccountDTO, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || len(username) > 150 {
		return nil, fmt.Errorf("%w: username must be 1-150 characters", domain.ErrInvalidProfile)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email %q", domain.ErrInvalidProfile, in.Email)
	}
	if err := validateProfile(in.Profile); err != nil {
		return nil, err
	}

	var created *domain.Account
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		taken, err := r.Accounts.ExistsByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrAlreadyExists
		}
		a := &domain.Account{AccountID: id.NewID32(), Username: username, Email: email}
		if err := r.Accounts.Create(ctx, a); err != nil {
			return err
		}
		p := &domain.Profile{AccountPK: a.ID}
		in.Profile.apply(p)
		if err := r.Accounts.CreateProfile(ctx, p); err != nil {
			return err
		}
		a.Profile = p
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("account created", zap.String("account_id", created.AccountID))
	u.notify(ctx, created, notification.TemplateWelcome, map[string]any{"Username": created.Username})
	return toDTO(created), nil
}

func validateProfile(in ProfileInput) error {
	if in.MaritalStatus != "" && !in.MaritalStatus.Valid() {
		return fmt.Errorf("%w: unknown marital status %q", domain.ErrInvalidProfile, in.MaritalStatus)
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return fmt.Errorf("%w: birth date is in the future", domain.ErrInvalidProfile)
	}
	return nil
}

// Get is allowed for the account itself and the manager.
func (u *Usecase) Get(ctx context.Context, accountID, requesterID string) (*AccountDTO, error) {
	if requesterID != accountID && !u.auth.IsManager(requesterID) {
		return nil, domain.ErrForbidden
	}
	a, err := u.accounts.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

// UpdateProfile replaces the identity fields. Validated profiles are frozen.
func (u *Usecase) UpdateProfile(ctx context.Context, accountID, requesterID string, in ProfileInput) (*AccountDTO, error) {
	if requesterID != accountID {
		return nil, domain.ErrForbidden
	}
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	var out *domain.Account
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Accounts.GetByAccountIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.Profile == nil {
			a.Profile = &domain.Profile{AccountPK: a.ID}
		}
		if a.Profile.IsValidated {
			return domain.ErrProfileLocked
		}
		in.apply(a.Profile)
		if err := r.Accounts.SaveProfile(ctx, a.Profile); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(out), nil
}

// AttachDocument stores an uploaded file and, for KYC kinds, records its key on
// the profile. Loan project documents are only stored; the caller passes the
// key on with the loan request.
func (u *Usecase) AttachDocument(ctx context.Context, in DocumentInput, body io.Reader) (*DocumentDTO, error) {
	if in.RequesterID != in.AccountID {
		return nil, domain.ErrForbidden
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidDocument, in.Kind)
	}
	if u.store == nil {
		return nil, ErrStorageDisabled
	}
	if in.Size <= 0 || in.Size > u.maxUpload {
		return nil, fmt.Errorf("%w: size must be between 1 and %d bytes", domain.ErrInvalidDocument, u.maxUpload)
	}

	// one extra byte tells us the declared size was a lie
	buf, err := io.ReadAll(io.LimitReader(body, u.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > u.maxUpload || len(buf) == 0 {
		return nil, fmt.Errorf("%w: size must be between 1 and %d bytes", domain.ErrInvalidDocument, u.maxUpload)
	}
	mt := mimetype.Detect(buf)
	allowed := documentTypes
	if in.Kind.ImageOnly() {
		allowed = imageTypes
	}
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return nil, fmt.Errorf("%w: %s not accepted for %s", domain.ErrInvalidDocument, mt.String(), in.Kind)
	}

	a, err := u.accounts.GetByAccountID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if in.Kind != domain.DocLoanProject && a.Profile != nil && a.Profile.IsValidated {
		return nil, domain.ErrProfileLocked
	}

	name := cleanFilename(in.Filename, mt.Extension())
	prefix := domain.DocumentPrefix(in.AccountID, in.Kind)
	key, err := u.store.Put(ctx, prefix, name, mt.String(), bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	if in.Kind != domain.DocLoanProject {
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			locked, err := r.Accounts.GetByAccountIDForUpdate(ctx, in.AccountID)
			if err != nil {
				return err
			}
			if locked.Profile == nil {
				locked.Profile = &domain.Profile{AccountPK: locked.ID}
			}
			if locked.Profile.IsValidated {
				return domain.ErrProfileLocked
			}
			locked.Profile.SetDocument(in.Kind, key)
			return r.Accounts.SaveProfile(ctx, locked.Profile)
		})
		if err != nil {
			return nil, err
		}
	}

	u.log.Info("document stored",
		zap.String("account_id", in.AccountID),
		zap.String("kind", string(in.Kind)),
		zap.String("content_type", mt.String()),
		zap.Int("size", len(buf)))
	return &DocumentDTO{Kind: in.Kind, Key: key, ContentType: mt.String(), Size: int64(len(buf))}, nil
}

func cleanFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" || out == "." {
		out = "document"
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return out + ext
}

// ValidateProfile marks a complete profile as verified. Repeating it is a no-op.
func (u *Usecase) ValidateProfile(ctx context.Context, accountID, managerID string) (*AccountDTO, error) {
	if !u.auth.IsManager(managerID) {
		return nil, domain.ErrForbidden
	}
	var (
		out     *domain.Account
		changed bool
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Accounts.GetByAccountIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		out = a
		if !a.Profile.IsComplete() {
			return fmt.Errorf("%w: profile is incomplete", domain.ErrInvalidProfile)
		}
		if a.Profile.IsValidated {
			return nil
		}
		now := u.now()
		a.Profile.IsValidated = true
		a.Profile.ValidatedAt = &now
		changed = true
		return r.Accounts.SaveProfile(ctx, a.Profile)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		u.log.Info("profile validated", zap.String("account_id", accountID), zap.String("by", managerID))
		u.notify(ctx, out, notification.TemplateAccountValidated, nil)
	}
	return toDTO(out), nil
}

func (u *Usecase) notify(ctx context.Context, a *domain.Account, key string, extra map[string]any) {
	if u.notifier == nil {
		return
	}
	data := map[string]any{
		"RecipientName": a.DisplayName(),
		"Date":          u.now().Format("02/01/2006 15:04"),
	}
	for k, v := range extra {
		data[k] = v
	}
	u.notifier.Dispatch(ctx, notification.Outbound{
		Recipient:   notification.Recipient{AccountID: a.AccountID, Email: a.Email, Name: a.DisplayName()},
		TemplateKey: key,
		Data:        data,
	})
}
