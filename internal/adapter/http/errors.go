package http

import (
	"errors"
	"net/http"

	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/domain/payment"
	accountuc "ecobank-loans/internal/usecase/account"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var statusByErr = []struct {
	err  error
	code int
}{
	{loan.ErrValidation, http.StatusUnprocessableEntity},
	{loan.ErrKeyMismatch, http.StatusUnprocessableEntity},
	{account.ErrInvalidProfile, http.StatusUnprocessableEntity},
	{account.ErrInvalidDocument, http.StatusUnprocessableEntity},
	{message.ErrInvalid, http.StatusUnprocessableEntity},
	{loan.ErrNotFound, http.StatusNotFound},
	{account.ErrNotFound, http.StatusNotFound},
	{payment.ErrNotFound, http.StatusNotFound},
	{message.ErrNotFound, http.StatusNotFound},
	{notification.ErrNotFound, http.StatusNotFound},
	{loan.ErrInvalidTransition, http.StatusConflict},
	{loan.ErrNotPaid, http.StatusConflict},
	{account.ErrAlreadyExists, http.StatusConflict},
	{account.ErrProfileLocked, http.StatusConflict},
	{account.ErrForbidden, http.StatusForbidden},
	{accountuc.ErrStorageDisabled, http.StatusServiceUnavailable},
}

// statusFor maps a domain error to its HTTP status; unknown errors are 500.
func statusFor(err error) int {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Internal errors are logged and
// never leak their message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}
