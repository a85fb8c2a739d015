// Package dto defines request and response payloads for identity endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the login request fields.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
	)
}

// CreateAccountRequest is the payload for POST /v1/accounts.
type CreateAccountRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     string     `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
}

// Validate checks the account creation fields. Deeper rules (role validity,
// tenant requirement) live in the use case where store state is available.
func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
		validation.Field(&r.Role,
			validation.Required.Error("role is required"),
		),
	)
}

// UpdateAccountRequest is the payload for PUT /v1/accounts/:id.
// Absent fields are left unchanged.
type UpdateAccountRequest struct {
	Password *string    `json:"password"`
	Role     *string    `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
	IsActive *bool      `json:"is_active"`
}

// Validate checks the account update fields.
func (r UpdateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password,
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		),
	)
}
