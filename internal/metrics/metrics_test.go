package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCountersAreRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordMovement(ctx, "sale")
	m.RecordMovement(ctx, "sale")
	m.RecordReconcile(ctx, "repair", true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[md.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["stock_movements_total"])
	assert.Equal(t, int64(1), totals["stock_reconcile_drift_total"])
	assert.Equal(t, int64(1), totals["stock_reconcile_parents_checked_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMovement(context.Background(), "sale")
		m.RecordTransfer(context.Background(), "completed")
		m.RecordDuplicateSerial(context.Background())
	})
}

func TestDisabledProviderIsNoop(t *testing.T) {
	provider, shutdown, err := NewProvider(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NoError(t, shutdown(context.Background()))
}
