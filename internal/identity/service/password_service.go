// Package service provides credential and session token services for identity.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/imeiguard/internal/errors"
)

// PasswordService hashes and verifies account passwords.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a PasswordService with the interactive Argon2id policy.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}
	return &passwordService{hasher: hasher}, nil
}

// Hash returns the encoded Argon2id hash of the password.
func (p *passwordService) Hash(password string) (string, error) {
	hash, err := p.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// Verify reports whether the password matches the encoded hash.
func (p *passwordService) Verify(password, encodedHash string) bool {
	ok, err := p.hasher.Verify([]byte(password), encodedHash)
	if err != nil {
		return false
	}
	return ok
}
