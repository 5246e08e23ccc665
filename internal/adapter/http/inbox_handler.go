package http

import (
	"net/http"

	"ecobank-loans/internal/adapter/middleware"
	"ecobank-loans/internal/usecase/inbox"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type InboxHandler struct {
	uc  *inbox.Usecase
	log *zap.Logger
}

func NewInboxHandler(uc *inbox.Usecase, log *zap.Logger) *InboxHandler {
	return &InboxHandler{uc: uc, log: log}
}

type sendMessageReq struct {
	RecipientID   string `json:"recipient_id"    validate:"omitempty,hex32"`
	LoanRequestID string `json:"loan_request_id" validate:"omitempty,hex32"`
	Subject       string `json:"subject"         validate:"required,max=200"`
	Content       string `json:"content"         validate:"required,max=5000"`
}

func (h *InboxHandler) SendMessage(c echo.Context) error {
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	m, err := h.uc.SendMessage(c.Request().Context(), inbox.SendInput{
		SenderID:      middleware.ActorID(c),
		RecipientID:   req.RecipientID,
		LoanRequestID: req.LoanRequestID,
		Subject:       req.Subject,
		Content:       req.Content,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *InboxHandler) ListMessages(c echo.Context) error {
	list, err := h.uc.ListMessages(c.Request().Context(), middleware.ActorID(c), queryLimit(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *InboxHandler) MarkMessageRead(c echo.Context) error {
	if err := h.uc.MarkMessageRead(c.Request().Context(), middleware.ActorID(c), c.Param("message_id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InboxHandler) ListNotifications(c echo.Context) error {
	list, err := h.uc.ListNotifications(c.Request().Context(), middleware.ActorID(c), queryLimit(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *InboxHandler) MarkNotificationRead(c echo.Context) error {
	if err := h.uc.MarkNotificationRead(c.Request().Context(), middleware.ActorID(c), c.Param("notification_id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
