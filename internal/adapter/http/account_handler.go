package http

import (
	"net/http"
	"time"

	"ecobank-loans/internal/adapter/middleware"
	domain "ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/usecase/account"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AccountHandler struct {
	uc  *account.Usecase
	log *zap.Logger
}

func NewAccountHandler(uc *account.Usecase, log *zap.Logger) *AccountHandler {
	return &AccountHandler{uc: uc, log: log}
}

type profileReq struct {
	LastName  string `json:"last_name"  validate:"max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	// YYYY-MM-DD
	BirthDate     string `json:"birth_date"     validate:"omitempty,datetime=2006-01-02"`
	BirthPlace    string `json:"birth_place"    validate:"max=200"`
	MaritalStatus string `json:"marital_status" validate:"omitempty,oneof=single married divorced widowed"`
	Profession    string `json:"profession"     validate:"max=200"`
	Address       string `json:"address"        validate:"max=1000"`
}

func (r profileReq) input() account.ProfileInput {
	in := account.ProfileInput{
		LastName:      r.LastName,
		FirstName:     r.FirstName,
		BirthPlace:    r.BirthPlace,
		MaritalStatus: domain.MaritalStatus(r.MaritalStatus),
		Profession:    r.Profession,
		Address:       r.Address,
	}
	if t, err := time.Parse(time.DateOnly, r.BirthDate); err == nil {
		in.BirthDate = &t
	}
	return in
}

type registerReq struct {
	Username string     `json:"username" validate:"required,max=150"`
	Email    string     `json:"email"    validate:"required,email"`
	Profile  profileReq `json:"profile"`
}

func (h *AccountHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.CreateAccountWithProfile(c.Request().Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Profile:  req.Profile.input(),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AccountHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("account_id"), middleware.ActorID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.UpdateProfile(c.Request().Context(), c.Param("account_id"), middleware.ActorID(c), req.input())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// UploadDocument expects a multipart form with the file under "file".
func (h *AccountHandler) UploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		return invalidBody(c)
	}
	defer f.Close()

	dto, err := h.uc.AttachDocument(c.Request().Context(), account.DocumentInput{
		AccountID:   c.Param("account_id"),
		RequesterID: middleware.ActorID(c),
		Kind:        domain.DocumentKind(c.Param("kind")),
		Filename:    fh.Filename,
		Size:        fh.Size,
	}, f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AccountHandler) Validate(c echo.Context) error {
	dto, err := h.uc.ValidateProfile(c.Request().Context(), c.Param("account_id"), middleware.ActorID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
