package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric line
// matching the given name, partial label pattern, and value. Regex absorbs
// the extra OTel scope labels injected by the exporter.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, bm)
}

func TestBusinessMetrics_Record(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "imeiguard_test")
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordOperation(ctx, "verification", "verify", "success")
	bm.RecordOperation(ctx, "verification", "verify", "success")
	bm.RecordOperation(ctx, "verification", "verify", "error")
	bm.RecordOperation(ctx, "registry", "device_register", "success")

	bm.RecordDuration(ctx, "verification", "verify", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "verification", "verify", 75*time.Millisecond, "success")
	bm.RecordDuration(ctx, "registry", "device_register", 10*time.Millisecond, "success")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()

	assertMetricLine(
		t,
		output,
		`imeiguard_test_operations_total`,
		`domain="verification".*operation="verify".*status="success"`,
		`2`,
	)
	assertMetricLine(
		t,
		output,
		`imeiguard_test_operations_total`,
		`domain="verification".*operation="verify".*status="error"`,
		`1`,
	)
	assertMetricLine(
		t,
		output,
		`imeiguard_test_operation_duration_seconds_count`,
		`domain="verification".*operation="verify".*status="success"`,
		`2`,
	)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOp)
	noOp.RecordOperation(context.Background(), "verification", "verify", "success")
	noOp.RecordDuration(context.Background(), "verification", "verify", 100*time.Millisecond, "success")
}
