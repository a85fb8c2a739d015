package usecase

import (
	"context"
	"time"

	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/metrics"
	"github.com/allisson/imeiguard/internal/verification/domain"
)

const metricsDomain = "verification"

// metricsVerificationUseCase decorates a VerificationUseCase with business
// metrics recording.
type metricsVerificationUseCase struct {
	next            VerificationUseCase
	businessMetrics metrics.BusinessMetrics
}

// NewVerificationUseCaseWithMetrics wraps a VerificationUseCase so every
// operation records a count and a duration.
func NewVerificationUseCaseWithMetrics(next VerificationUseCase, businessMetrics metrics.BusinessMetrics) VerificationUseCase {
	return &metricsVerificationUseCase{
		next:            next,
		businessMetrics: businessMetrics,
	}
}

func (m *metricsVerificationUseCase) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.businessMetrics.RecordOperation(ctx, metricsDomain, operation, status)
	m.businessMetrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (m *metricsVerificationUseCase) Verify(ctx context.Context, scope identityDomain.Scope, imei string) (*domain.Result, error) {
	start := time.Now()
	result, err := m.next.Verify(ctx, scope, imei)
	m.record(ctx, "verify", start, err)
	return result, err
}

func (m *metricsVerificationUseCase) SearchDevices(ctx context.Context, scope identityDomain.Scope, filter SearchFilter) ([]*DeviceMatch, error) {
	start := time.Now()
	matches, err := m.next.SearchDevices(ctx, scope, filter)
	m.record(ctx, "search_devices", start, err)
	return matches, err
}
