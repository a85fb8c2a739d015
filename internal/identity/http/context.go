// Package http provides HTTP middleware and handlers for identity operations.
package http

import (
	"context"

	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
)

// claimsKey is a context key type for storing verified session claims.
type claimsKey struct{}

// WithClaims stores verified session claims in the context.
// This is called by the authentication middleware after token verification.
func WithClaims(ctx context.Context, claims *identityDomain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves verified session claims from the context.
// Returns (claims, true) if present, or (nil, false) if no claims were set.
func GetClaims(ctx context.Context) (*identityDomain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*identityDomain.Claims)
	return claims, ok
}

// GetScope derives the request scope from the claims in the context.
// Returns (scope, false) with a zero scope when no claims are present.
func GetScope(ctx context.Context) (identityDomain.Scope, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return identityDomain.Scope{}, false
	}
	return identityDomain.NewScope(claims), true
}
