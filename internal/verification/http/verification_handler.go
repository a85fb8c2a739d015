// Package http provides the HTTP surface of the verification engine.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/httputil"
	identityHTTP "github.com/allisson/imeiguard/internal/identity/http"
	registryDomain "github.com/allisson/imeiguard/internal/registry/domain"
	tenantDomain "github.com/allisson/imeiguard/internal/tenant/domain"
	"github.com/allisson/imeiguard/internal/verification/domain"
	verificationUseCase "github.com/allisson/imeiguard/internal/verification/usecase"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// VerificationRequest is the payload for a verification query.
type VerificationRequest struct {
	IMEI string `json:"imei"`
}

// Validate validates the verification request.
func (r VerificationRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.IMEI,
			validation.Required.Error("imei is required"),
			appValidation.IMEI,
		),
	)
	return appValidation.WrapValidationError(err)
}

// personResult is the person part of a verification response.
type personResult struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Identification string    `json:"identification"`
}

// tenantResult is the tenant part of a verification response.
type tenantResult struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// deviceResult is the device part of a verification response.
type deviceResult struct {
	ID        uuid.UUID `json:"id"`
	IMEI      string    `json:"imei"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationResponse mirrors the engine result: person, tenant, and device
// are present only on a valid match.
type VerificationResponse struct {
	Valid   bool          `json:"valid"`
	Message string        `json:"message"`
	Person  *personResult `json:"person,omitempty"`
	Tenant  *tenantResult `json:"tenant,omitempty"`
	Device  *deviceResult `json:"device,omitempty"`
}

func toVerificationResponse(result *domain.Result) VerificationResponse {
	response := VerificationResponse{
		Valid:   result.Valid,
		Message: result.Message,
	}
	if result.Person != nil {
		response.Person = &personResult{
			ID:             result.Person.ID,
			Name:           result.Person.Name,
			Identification: result.Person.Identification,
		}
	}
	if result.Tenant != nil {
		response.Tenant = toTenantResult(result.Tenant)
	}
	if result.Device != nil {
		response.Device = toDeviceResult(result.Device)
	}
	return response
}

func toTenantResult(tenant *tenantDomain.Tenant) *tenantResult {
	return &tenantResult{ID: tenant.ID, Name: tenant.Name}
}

func toDeviceResult(device *registryDomain.Device) *deviceResult {
	return &deviceResult{
		ID:        device.ID,
		IMEI:      device.IMEI,
		Brand:     device.Brand,
		Model:     device.Model,
		IsActive:  device.IsActive,
		CreatedAt: device.CreatedAt,
	}
}

// DeviceMatchResponse is one entry of a device search result.
type DeviceMatchResponse struct {
	Device *deviceResult `json:"device"`
	Person *personResult `json:"person"`
}

// VerificationHandler handles verification HTTP requests.
type VerificationHandler struct {
	verificationUseCase verificationUseCase.VerificationUseCase
	logger              *slog.Logger
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(uc verificationUseCase.VerificationUseCase, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{
		verificationUseCase: uc,
		logger:              logger,
	}
}

// VerifyHandler resolves a plaintext IMEI to its device, owner, and tenant.
// POST /v1/verifications
func (h *VerificationHandler) VerifyHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	result, err := h.verificationUseCase.Verify(c.Request.Context(), scope, req.IMEI)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toVerificationResponse(result))
}

// SearchHandler lists devices with an optional substring filter over the
// decrypted IMEI and the owner's name.
// GET /v1/devices?search=
func (h *VerificationHandler) SearchHandler(c *gin.Context) {
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

	matches, err := h.verificationUseCase.SearchDevices(c.Request.Context(), scope, verificationUseCase.SearchFilter{
		Query:  c.Query("search"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]DeviceMatchResponse, 0, len(matches))
	for _, match := range matches {
		responses = append(responses, DeviceMatchResponse{
			Device: toDeviceResult(match.Device),
			Person: &personResult{
				ID:             match.Person.ID,
				Name:           match.Person.Name,
				Identification: match.Person.Identification,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"devices": responses})
}
