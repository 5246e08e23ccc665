package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecobank-loans/internal/adapter/middleware"
	"ecobank-loans/internal/domain/account"
	domain "ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LoanHandler struct {
	uc   *loan.Usecase
	auth account.Authorizer
	log  *zap.Logger
}

func NewLoanHandler(uc *loan.Usecase, auth account.Authorizer, log *zap.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, auth: auth, log: log}
}

type createLoanReq struct {
	Amount             decimal.Decimal `json:"amount"               validate:"required,dgt=0,dec2"`
	Motif              string          `json:"motif"                validate:"required,max=2000"`
	RepaymentMonths    int             `json:"repayment_months"     validate:"gte=0"`
	ProjectDocumentKey string          `json:"project_document_key" validate:"max=255"`
}

type confirmPaymentReq struct {
	PaymentKey string `json:"payment_key" validate:"max=64"`
}

// view hides the payment key from everyone but the manager.
func (h *LoanHandler) view(c echo.Context, dto loan.LoanDTO) loan.LoanDTO {
	if h.auth.IsManager(middleware.ActorID(c)) {
		return dto
	}
	return dto.WithoutKey()
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Submit(c.Request().Context(), loan.SubmitInput{
		OwnerID:            middleware.ActorID(c),
		Amount:             req.Amount,
		Motif:              req.Motif,
		RepaymentMonths:    req.RepaymentMonths,
		ProjectDocumentKey: req.ProjectDocumentKey,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.view(c, *dto))
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	actor := middleware.ActorID(c)
	if dto.OwnerID != actor && !h.auth.IsManager(actor) {
		// same answer as a missing loan
		return writeError(c, h.log, domain.ErrNotFound)
	}
	return c.JSON(http.StatusOK, h.view(c, *dto))
}

func (h *LoanHandler) ListAccountLoans(c echo.Context) error {
	owner := c.Param("account_id")
	actor := middleware.ActorID(c)
	if owner != actor && !h.auth.IsManager(actor) {
		return writeError(c, h.log, account.ErrForbidden)
	}
	list, err := h.uc.ListByOwner(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	for i := range list {
		list[i] = h.view(c, list[i])
	}
	return c.JSON(http.StatusOK, list)
}

func (h *LoanHandler) Summary(c echo.Context) error {
	owner := c.Param("account_id")
	actor := middleware.ActorID(c)
	if owner != actor && !h.auth.IsManager(actor) {
		return writeError(c, h.log, account.ErrForbidden)
	}
	sum, err := h.uc.Summary(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *LoanHandler) Approve(c echo.Context) error {
	return h.transition(c, h.uc.Approve)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	return h.transition(c, h.uc.Reject)
}

func (h *LoanHandler) Activate(c echo.Context) error {
	return h.transition(c, h.uc.Activate)
}

func (h *LoanHandler) transition(c echo.Context, fn func(ctx context.Context, requestID string) (*loan.LoanDTO, error)) error {
	dto, err := fn(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.view(c, *dto))
}

func (h *LoanHandler) ConfirmPayment(c echo.Context) error {
	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.ConfirmPayment(c.Request().Context(), loan.ConfirmPaymentInput{
		RequestID:  c.Param("loan_id"),
		EnteredKey: strings.TrimSpace(req.PaymentKey),
		ApproverID: middleware.ActorID(c),
	})
	if errors.Is(err, domain.ErrKeyMismatch) && dto != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:     domain.ErrKeyMismatch.Error(),
			PaymentID: dto.PaymentID,
		})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListPayments(c echo.Context) error {
	list, err := h.uc.ListPayments(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *LoanHandler) Certificate(c echo.Context) error {
	pdf, name, err := h.uc.Certificate(c.Request().Context(), c.Param("loan_id"), middleware.ActorID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
