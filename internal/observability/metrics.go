// Package observability provides OpenTelemetry metrics instrumentation.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics bundles the instruments recorded by the pipeline. A nil *Metrics
// is valid and records nothing, which keeps tests free of metric plumbing.
type Metrics struct {
	jobsProcessed metric.Int64Counter
	assetTimeouts metric.Int64Counter
	batchDuration metric.Float64Histogram
}

// Init initializes the OpenTelemetry meter provider with a Prometheus
// exporter. It returns the handler for the /metrics endpoint, the pipeline
// instruments, and a shutdown function for graceful cleanup.
func Init() (http.Handler, *Metrics, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("contentforge")

	jobsProcessed, err := meter.Int64Counter("jobs_processed_total",
		metric.WithDescription("Jobs handled by the orchestrator, by outcome."))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create jobs counter: %w", err)
	}
	assetTimeouts, err := meter.Int64Counter("asset_stage_timeouts_total",
		metric.WithDescription("Asset stages that exceeded their deadline."))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create timeout counter: %w", err)
	}
	batchDuration, err := meter.Float64Histogram("batch_duration_seconds",
		metric.WithDescription("Wall time of one batch run."))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create batch histogram: %w", err)
	}

	m := &Metrics{
		jobsProcessed: jobsProcessed,
		assetTimeouts: assetTimeouts,
		batchDuration: batchDuration,
	}
	return promhttp.Handler(), m, provider.Shutdown, nil
}

// RecordJob counts one finished job by outcome.
func (m *Metrics) RecordJob(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.jobsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAssetTimeout counts one asset stage deadline overrun.
func (m *Metrics) RecordAssetTimeout(ctx context.Context) {
	if m == nil {
		return
	}
	m.assetTimeouts.Add(ctx, 1)
}

// RecordBatch records the duration of one batch run.
func (m *Metrics) RecordBatch(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.Record(ctx, seconds)
}
