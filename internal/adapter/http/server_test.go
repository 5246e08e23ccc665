package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ecobank-loans/internal/adapter/middleware"
	"ecobank-loans/internal/adapter/repository/gormstore"
	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/testutil/accountmock"
	"ecobank-loans/internal/testutil/notifymock"
	accountuc "ecobank-loans/internal/usecase/account"
	"ecobank-loans/internal/usecase/inbox"
	"ecobank-loans/internal/usecase/loan"
	"ecobank-loans/pkg/id"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const managerID = "cccccccccccccccccccccccccccccccc"

type testServer struct {
	e     *echo.Echo
	db    *gorm.DB
	notes *notifymock.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", id.NewID32())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := gormstore.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auth := account.StaticManager(managerID)
	notes := &notifymock.Recorder{}
	accounts := gormstore.NewAccountRepository(db)
	tx := gormstore.NewGormUoW(db)
	policy := loan.Policy{
		MinAmount:               decimal.NewFromInt(5_000_000),
		MaxAmount:               decimal.NewFromInt(50_000_000),
		AdvanceRate:             decimal.RequireFromString("0.15"),
		MinRepaymentMonths:      12,
		MaxRepaymentMonths:      300,
		DefaultRepaymentMonths:  84,
		RequireValidatedProfile: true,
		BankName:                "ECOBANK",
	}

	loanUC := loan.NewUsecase(gormstore.NewLoanRepository(db), gormstore.NewPaymentRepository(db), accounts, tx, auth, policy,
		loan.WithNotifier(notes))
	accountUC := accountuc.NewUsecase(accounts, tx, auth,
		accountuc.WithNotifier(notes), accountuc.WithDocumentStore(&accountmock.Store{}))
	inboxUC := inbox.NewUsecase(gormstore.NewMessageRepository(db), gormstore.NewNotificationRepository(db), accounts, managerID,
		inbox.WithNotifier(notes))

	log := zap.NewNop()
	e := NewRouter(RouterDeps{
		Health:    NewHandler(),
		Accounts:  NewAccountHandler(accountUC, log),
		Loans:     NewLoanHandler(loanUC, auth, log),
		Inbox:     NewInboxHandler(inboxUC, log),
		Auth:      auth,
		Log:       log,
		BodyLimit: "1M",
	})
	return &testServer{e: e, db: db, notes: notes}
}

// seedAccount inserts an account; validated ones carry a complete profile.
func (s *testServer) seedAccount(t *testing.T, accountID, username string, validated bool) {
	t.Helper()
	a := &account.Account{AccountID: accountID, Username: username, Email: username + "@example.com"}
	if err := s.db.Create(a).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	birth := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	p := &account.Profile{AccountPK: a.ID, LastName: "Kouassi", FirstName: "Jean"}
	if validated {
		p.BirthDate, p.BirthPlace, p.MaritalStatus = &birth, "Abidjan", account.MaritalSingle
		p.Profession, p.Address = "Trader", "Plateau"
		p.IDFrontKey, p.IDBackKey, p.ProofOfAddressKey = "f", "b", "a"
		now := time.Now().UTC()
		p.IsValidated, p.ValidatedAt = true, &now
	}
	if err := s.db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func (s *testServer) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != "" {
		req.Header.Set(middleware.HeaderAccountID, actor)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

