package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/imeiguard/internal/httputil"
	"github.com/allisson/imeiguard/internal/identity/http/dto"
	identityUseCase "github.com/allisson/imeiguard/internal/identity/usecase"
	customValidation "github.com/allisson/imeiguard/internal/validation"
)

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authUseCase identityUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authUseCase identityUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// LoginHandler authenticates an account and returns a session token.
// POST /v1/auth/login - unauthenticated, rate limited per IP.
// Returns 200 OK with the token, 401 on any credential failure.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:   output.Token,
		Account: dto.ToAccountResponse(output.Account),
	})
}
