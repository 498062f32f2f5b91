package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "persona-core"

// StartTickSpan starts the span wrapping one limbic scheduler tick
// (spec.md §4.1, SPEC_FULL §4.1).
func StartTickSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "limbic.tick")
}

// StartPipelineRunSpan starts the span wrapping one
// observe->decide->draft->preflight->commit pipeline run (spec.md
// §4.2, SPEC_FULL §4.2).
func StartPipelineRunSpan(ctx context.Context, signalName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("pipeline.trigger_signal", signalName),
		),
	)
}

// StartPipelineStepSpan starts a child span for one named step of a
// pipeline run ("observe", "decide", "draft", "preflight", "commit").
func StartPipelineStepSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline."+step)
}
