package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ServiceName      string
}

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(ctx context.Context) error

// NewProvider configures and registers the meter provider. When metrics are
// disabled a no-op provider is returned.
func NewProvider(ctx context.Context, cfg Config, log logger.ZapLogger) (metric.MeterProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, func(context.Context) error { return nil }, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.ExporterEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if log != nil {
		log.Info("metrics initialized", zap.String("endpoint", cfg.ExporterEndpoint))
	}
	return provider, provider.Shutdown, nil
}

// Metrics exposes stock instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	movements       metric.Int64Counter
	transfers       metric.Int64Counter
	conflicts       metric.Int64Counter
	reconcileDrift  metric.Int64Counter
	reconcileParent metric.Int64Counter
	serialRejects   metric.Int64Counter
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "omnipos-stock"
	}
	meter := provider.Meter(name)

	movements, err := meter.Int64Counter("stock_movements_total")
	if err != nil {
		return nil, err
	}
	transfers, err := meter.Int64Counter("stock_transfer_transitions_total")
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("stock_concurrent_modifications_total")
	if err != nil {
		return nil, err
	}
	drift, err := meter.Int64Counter("stock_reconcile_drift_total")
	if err != nil {
		return nil, err
	}
	parents, err := meter.Int64Counter("stock_reconcile_parents_checked_total")
	if err != nil {
		return nil, err
	}
	serialRejects, err := meter.Int64Counter("stock_duplicate_serial_rejections_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		movements:       movements,
		transfers:       transfers,
		conflicts:       conflicts,
		reconcileDrift:  drift,
		reconcileParent: parents,
		serialRejects:   serialRejects,
	}, nil
}

func (m *Metrics) RecordMovement(ctx context.Context, movementType string) {
	if m == nil {
		return
	}
	m.movements.Add(ctx, 1, metric.WithAttributes(attribute.String("movement_type", movementType)))
}

func (m *Metrics) RecordTransfer(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transfers.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *Metrics) RecordReconcile(ctx context.Context, mode string, drifted bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.reconcileParent.Add(ctx, 1, attrs)
	if drifted {
		m.reconcileDrift.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordDuplicateSerial(ctx context.Context) {
	if m == nil {
		return
	}
	m.serialRejects.Add(ctx, 1)
}
