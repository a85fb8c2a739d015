// Package http provides HTTP handlers for person and device management.
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

// PersonResponse is the representation of a person returned by the API.
// Identification carries the clear value for privileged callers and a
// fingerprint for everyone else; the use case decides which.
type PersonResponse struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	Identification string    `json:"identification"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPersonResponse(person *domain.Person) PersonResponse {
	return PersonResponse{
		ID:             person.ID,
		TenantID:       person.TenantID,
		Name:           person.Name,
		Identification: person.Identification,
		Phone:          person.Phone,
		Email:          person.Email,
		IsActive:       person.IsActive,
		CreatedAt:      person.CreatedAt,
		UpdatedAt:      person.UpdatedAt,
	}
}

// PersonHandler handles person management HTTP requests.
type PersonHandler struct {
	personUseCase registryUseCase.PersonUseCase
	logger        *slog.Logger
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(personUseCase registryUseCase.PersonUseCase, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{
		personUseCase: personUseCase,
		logger:        logger,
	}
}

// CreateHandler registers a new person.
// POST /v1/persons
func (h *PersonHandler) CreateHandler(c *gin.Context) {
	scope, ok := identityHTTP.GetScope(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var input registryUseCase.CreatePersonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	person, err := h.personUseCase.Create(c.Request.Context(), scope, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, toPersonResponse(person))
}

// GetHandler retrieves a person by ID.
// GET /v1/persons/:id
func (h *PersonHandler) GetHandler(c *gin.Context) {
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

	person, err := h.personUseCase.Get(c.Request.Context(), scope, personID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toPersonResponse(person))
}

// ListHandler lists persons with pagination, bounded by the caller's tenant.
// GET /v1/persons
func (h *PersonHandler) ListHandler(c *gin.Context) {
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

	persons, err := h.personUseCase.List(c.Request.Context(), scope, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]PersonResponse, 0, len(persons))
	for _, person := range persons {
		responses = append(responses, toPersonResponse(person))
	}

	c.JSON(http.StatusOK, gin.H{"persons": responses})
}

// UpdateHandler modifies a person.
// PUT /v1/persons/:id
func (h *PersonHandler) UpdateHandler(c *gin.Context) {
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

	var input registryUseCase.UpdatePersonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	person, err := h.personUseCase.Update(c.Request.Context(), scope, personID, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, toPersonResponse(person))
}

// DeleteHandler removes a person.
// DELETE /v1/persons/:id - rejected while devices remain assigned.
func (h *PersonHandler) DeleteHandler(c *gin.Context) {
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

	if err := h.personUseCase.Delete(c.Request.Context(), scope, personID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
