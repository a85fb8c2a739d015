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
	"github.com/allisson/imeiguard/internal/registry/domain"
	registryUseCase "github.com/allisson/imeiguard/internal/registry/usecase"
)

// DeviceResponse is the representation of a device returned by the API.
type DeviceResponse struct {
	ID        uuid.UUID `json:"id"`
	PersonID  uuid.UUID `json:"person_id"`
	IMEI      string    `json:"imei"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDeviceResponse(device *domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:        device.ID,
		PersonID:  device.PersonID,
		IMEI:      device.IMEI,
		Brand:     device.Brand,
		Model:     device.Model,
		IsActive:  device.IsActive,
		CreatedAt: device.CreatedAt,
		UpdatedAt: device.UpdatedAt,
	}
}

// reassignDeviceRequest is the payload for moving a device to another person.
type reassignDeviceRequest struct {
	PersonID uuid.UUID `json:"person_id"`
}

// DeviceHandler handles device management HTTP requests.
type DeviceHandler struct {
	deviceUseCase registryUseCase.DeviceUseCase
	logger        *slog.Logger
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(deviceUseCase registryUseCase.DeviceUseCase, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceUseCase: deviceUseCase,
		logger:        logger,
	}
}

// RegisterHandler assigns a new device to a person.
// POST /v1/devices
func (h *DeviceHandler) RegisterHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var input registryUseCase.RegisterDeviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	device, err := h.deviceUseCase.Register(c.Request.Context(), scope, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, toDeviceResponse(device))
}

// GetHandler retrieves a device by ID.
// GET /v1/devices/:id
func (h *DeviceHandler) GetHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device ID format: must be a valid UUID"),
			h.logger)
		return
	}

	device, err := h.deviceUseCase.Get(c.Request.Context(), scope, deviceID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toDeviceResponse(device))
}

// ListByPersonHandler lists the devices assigned to a person.
// GET /v1/persons/:id/devices
func (h *DeviceHandler) ListByPersonHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid person ID format: must be a valid UUID"),
			h.logger)
		return
	}

	devices, err := h.deviceUseCase.ListByPerson(c.Request.Context(), scope, personID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		responses = append(responses, toDeviceResponse(device))
	}

	c.JSON(http.StatusOK, gin.H{"devices": responses})
}

// UpdateHandler modifies a device's descriptive fields and active flag.
// PUT /v1/devices/:id
func (h *DeviceHandler) UpdateHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var input registryUseCase.UpdateDeviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	device, err := h.deviceUseCase.Update(c.Request.Context(), scope, deviceID, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toDeviceResponse(device))
}

// ReassignHandler moves a device to another person.
// POST /v1/devices/:id/reassign
func (h *DeviceHandler) ReassignHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req reassignDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if req.PersonID == uuid.Nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("person_id is required"), h.logger)
		return
	}

	device, err := h.deviceUseCase.Reassign(c.Request.Context(), scope, deviceID, req.PersonID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toDeviceResponse(device))
}

// DeleteHandler removes a device.
// DELETE /v1/devices/:id
func (h *DeviceHandler) DeleteHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid device ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.deviceUseCase.Delete(c.Request.Context(), scope, deviceID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
