package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "persona-core"

// Metrics holds the scheduler/pipeline metric instruments (SPEC_FULL
// §4.1, §4.2 ambient observability).
type Metrics struct {
	TicksTotal          metric.Int64Counter
	EmissionsTotal      metric.Int64Counter
	PipelineRunsTotal   metric.Int64Counter
	CommitsTotal        metric.Int64Counter
	PreflightRejections metric.Int64Counter
	RunDuration         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TicksTotal, err = meter.Int64Counter("persona.limbic.ticks",
		metric.WithDescription("Number of limbic scheduler ticks"))
	if err != nil {
		return nil, err
	}

	m.EmissionsTotal, err = meter.Int64Counter("persona.limbic.emissions",
		metric.WithDescription("Number of signal emissions"))
	if err != nil {
		return nil, err
	}

	m.PipelineRunsTotal, err = meter.Int64Counter("persona.pipeline.runs",
		metric.WithDescription("Number of pipeline runs"))
	if err != nil {
		return nil, err
	}

	m.CommitsTotal, err = meter.Int64Counter("persona.pipeline.commits",
		metric.WithDescription("Number of committed drafts"))
	if err != nil {
		return nil, err
	}

	m.PreflightRejections, err = meter.Int64Counter("persona.pipeline.preflight_rejections",
		metric.WithDescription("Number of drafts rejected by preflight"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("persona.pipeline.run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
