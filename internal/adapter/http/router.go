package http

import (
	"time"

	"ecobank-loans/internal/adapter/middleware"
	"ecobank-loans/internal/domain/account"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Health   *Handler
	Accounts *AccountHandler
	Loans    *LoanHandler
	Inbox    *InboxHandler

	Auth     account.Authorizer
	Redis    redis.Cmdable
	IdempTTL time.Duration
	Log      *zap.Logger
	// e.g. "10M"; bounds document uploads
	BodyLimit string
}

// NewRouter wires every route. Everything but /health and registration needs
// an actor; mutating actor routes are idempotent.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	if d.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.BodyLimit))
	}

	e.GET("/health", d.Health.Health)
	e.POST("/accounts", d.Accounts.Register)

	api := e.Group("", middleware.Actor())
	if d.Redis != nil {
		api.Use(middleware.Idempotency(d.Redis, d.IdempTTL, d.Log))
	}
	manager := middleware.RequireManager(d.Auth)

	api.GET("/accounts/:account_id", d.Accounts.Get)
	api.PUT("/accounts/:account_id/profile", d.Accounts.UpdateProfile)
	api.POST("/accounts/:account_id/documents/:kind", d.Accounts.UploadDocument)
	api.POST("/accounts/:account_id/validate", d.Accounts.Validate, manager)
	api.GET("/accounts/:account_id/loans", d.Loans.ListAccountLoans)
	api.GET("/accounts/:account_id/summary", d.Loans.Summary)

	api.POST("/loans", d.Loans.CreateLoan)
	api.GET("/loans/:loan_id", d.Loans.GetLoan)
	api.POST("/loans/:loan_id/approve", d.Loans.Approve, manager)
	api.POST("/loans/:loan_id/reject", d.Loans.Reject, manager)
	api.POST("/loans/:loan_id/activate", d.Loans.Activate, manager)
	api.POST("/loans/:loan_id/payments", d.Loans.ConfirmPayment, manager)
	api.GET("/loans/:loan_id/payments", d.Loans.ListPayments, manager)
	api.GET("/loans/:loan_id/certificate", d.Loans.Certificate)

	api.POST("/messages", d.Inbox.SendMessage)
	api.GET("/messages", d.Inbox.ListMessages)
	api.POST("/messages/:message_id/read", d.Inbox.MarkMessageRead)
	api.GET("/notifications", d.Inbox.ListNotifications)
	api.POST("/notifications/:notification_id/read", d.Inbox.MarkNotificationRead)

	return e
}
