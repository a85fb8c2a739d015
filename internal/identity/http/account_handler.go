package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/httputil"
	"github.com/allisson/imeiguard/internal/identity/http/dto"
	identityUseCase "github.com/allisson/imeiguard/internal/identity/usecase"
	customValidation "github.com/allisson/imeiguard/internal/validation"
)

// AccountHandler handles account management HTTP requests.
type AccountHandler struct {
	accountUseCase identityUseCase.AccountUseCase
	logger         *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUseCase identityUseCase.AccountUseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

// CreateHandler creates a new account.
// POST /v1/accounts - privileged roles only.
func (h *AccountHandler) CreateHandler(c *gin.Context) {
	scope, ok := GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := identityUseCase.CreateAccountInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		TenantID: req.TenantID,
	}

	account, err := h.accountUseCase.Create(c.Request.Context(), scope, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// GetHandler retrieves an account by ID.
// GET /v1/accounts/:id - privileged roles only.
func (h *AccountHandler) GetHandler(c *gin.Context) {
	scope, ok := GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid account ID format: must be a valid UUID"),
			h.logger)
		return
	}

	account, err := h.accountUseCase.Get(c.Request.Context(), scope, accountID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// ListHandler lists accounts with pagination.
// GET /v1/accounts - privileged roles only.
func (h *AccountHandler) ListHandler(c *gin.Context) {
	scope, ok := GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	accounts, err := h.accountUseCase.List(c.Request.Context(), scope, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountListResponse(accounts)})
}

// UpdateHandler updates an account.
// PUT /v1/accounts/:id - privileged roles only.
func (h *AccountHandler) UpdateHandler(c *gin.Context) {
	scope, ok := GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid account ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := identityUseCase.UpdateAccountInput{
		Password: req.Password,
		Role:     req.Role,
		TenantID: req.TenantID,
		IsActive: req.IsActive,
	}

	account, err := h.accountUseCase.Update(c.Request.Context(), scope, accountID, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// DeleteHandler removes an account.
// DELETE /v1/accounts/:id - privileged roles only.
func (h *AccountHandler) DeleteHandler(c *gin.Context) {
	scope, ok := GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid account ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.accountUseCase.Delete(c.Request.Context(), scope, accountID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
