package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/httputil"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	identityService "github.com/allisson/imeiguard/internal/identity/service"
)

// AuthenticationMiddleware verifies the Bearer session token and stores the
// resulting claims in the request context.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
//
// Error handling:
//   - Missing/malformed Authorization header → 401 Unauthorized
//   - Invalid/expired token → 401 Unauthorized
func AuthenticationMiddleware(tokenService identityService.TokenService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		tokenString := authHeader[len(bearerPrefix):]
		if tokenString == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := tokenService.Verify(tokenString)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePrivileged rejects requests whose scope does not hold a privileged
// role. MUST be used after AuthenticationMiddleware.
func RequirePrivileged(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !scope.Privileged() {
			logger.Debug("authorization failed: privileged role required",
				slog.String("account_id", scope.AccountID.String()),
				slog.String("role", string(scope.Role)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole rejects requests whose scope does not hold the exact role.
// MUST be used after AuthenticationMiddleware.
func RequireRole(role identityDomain.Role, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if scope.Role != role {
			logger.Debug("authorization failed: role mismatch",
				slog.String("account_id", scope.AccountID.String()),
				slog.String("role", string(scope.Role)),
				slog.String("required", string(role)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
