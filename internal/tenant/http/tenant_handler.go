// Package http provides HTTP handlers for tenant management operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/httputil"
	identityHTTP "github.com/allisson/imeiguard/internal/identity/http"
	"github.com/allisson/imeiguard/internal/tenant/domain"
	tenantUseCase "github.com/allisson/imeiguard/internal/tenant/usecase"
)

// TenantResponse is the representation of a tenant returned by the API.
type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTenantResponse(tenant *domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		IsActive:  tenant.IsActive,
		CreatedAt: tenant.CreatedAt,
		UpdatedAt: tenant.UpdatedAt,
	}
}

// TenantHandler handles tenant management HTTP requests.
type TenantHandler struct {
	tenantUseCase tenantUseCase.TenantUseCase
	logger        *slog.Logger
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(tenantUseCase tenantUseCase.TenantUseCase, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{
		tenantUseCase: tenantUseCase,
		logger:        logger,
	}
}

// CreateHandler creates a new tenant.
// POST /v1/tenants - privileged roles only.
func (h *TenantHandler) CreateHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var input tenantUseCase.CreateTenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	tenant, err := h.tenantUseCase.Create(c.Request.Context(), scope, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, toTenantResponse(tenant))
}

// GetHandler retrieves a tenant by ID.
// GET /v1/tenants/:id - non-privileged scopes may only fetch their own tenant.
func (h *TenantHandler) GetHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid tenant ID format: must be a valid UUID"),
			h.logger)
		return
	}

	tenant, err := h.tenantUseCase.Get(c.Request.Context(), scope, tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toTenantResponse(tenant))
}

// ListHandler lists active tenants with pagination.
// GET /v1/tenants
func (h *TenantHandler) ListHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	tenants, err := h.tenantUseCase.List(c.Request.Context(), scope, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		responses = append(responses, toTenantResponse(tenant))
	}

	c.JSON(http.StatusOK, gin.H{"tenants": responses})
}

// UpdateHandler renames a tenant.
// PUT /v1/tenants/:id - privileged roles only.
func (h *TenantHandler) UpdateHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid tenant ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var input tenantUseCase.UpdateTenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	tenant, err := h.tenantUseCase.Update(c.Request.Context(), scope, tenantID, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toTenantResponse(tenant))
}

// DeleteHandler soft deletes a tenant.
// DELETE /v1/tenants/:id - privileged roles only; rejected while persons of
// the tenant hold devices.
func (h *TenantHandler) DeleteHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid tenant ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.tenantUseCase.Deactivate(c.Request.Context(), scope, tenantID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
