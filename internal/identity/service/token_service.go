package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/identity/domain"
)

// TokenService issues and verifies session tokens.
type TokenService interface {
	// Issue creates a signed session token for the account.
	Issue(account *domain.Account) (string, error)

	// Verify parses and validates a session token, returning the embedded claims.
	// Any failure (bad signature, expired, malformed) yields ErrInvalidToken.
	Verify(tokenString string) (*domain.Claims, error)
}

// sessionClaims is the JWT payload for session tokens.
type sessionClaims struct {
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// jwtTokenService implements TokenService using HS256-signed JWTs.
type jwtTokenService struct {
	secret     []byte
	expiration time.Duration
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string, expiration time.Duration) TokenService {
	return &jwtTokenService{
		secret:     []byte(secret),
		expiration: expiration,
	}
}

// Issue creates a signed HS256 token carrying the account id, role, and tenant.
func (s *jwtTokenService) Issue(account *domain.Account) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	if account.TenantID != nil {
		claims.TenantID = account.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token signature and expiry and maps the payload to
// domain claims.
func (s *jwtTokenService) Verify(tokenString string) (*domain.Claims, error) {
	var claims sessionClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, domain.ErrInvalidToken
	}

	result := &domain.Claims{
		AccountID: accountID,
		Role:      role,
	}
	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return nil, domain.ErrInvalidToken
		}
		result.TenantID = &tenantID
	}

	return result, nil
}
