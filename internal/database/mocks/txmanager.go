// Package mocks provides test doubles for database interfaces.
package mocks

import (
	"context"
	"testing"
)

// MockTxManager is a TxManager test double that runs the transactional
// function directly, without a database. Rollback semantics are not
// simulated; tests asserting on them use sqlmock instead.
type MockTxManager struct{}

// NewMockTxManager creates a new MockTxManager.
func NewMockTxManager(t *testing.T) *MockTxManager {
	t.Helper()
	return &MockTxManager{}
}

// WithTx executes fn with the given context.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
