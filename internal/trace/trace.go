// Package trace wires Datadog tracing into scaninit. Tracing is off
// unless SCANINIT_TRACE=1, in which case every StartSpan call records
// a span and the spans of one run hang off the caller's span when
// DD_TRACE_ID and DD_SPAN_ID are provided.
package trace

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/replit/scaninit/internal/util"
)

const (
	enableEnvVar  = "SCANINIT_TRACE"
	traceIDEnvVar = "DD_TRACE_ID"
	spanIDEnvVar  = "DD_SPAN_ID"
)

var (
	parentTraceID string
	parentSpanID  string
	ddLogger      *DatadogLogger
)

// MaybeTrace starts the tracer if tracing was requested and reports
// whether it did. The caller must call Stop when it returns true.
func MaybeTrace(serviceVersion string) bool {
	if os.Getenv(enableEnvVar) != "1" {
		return false
	}

	// Unset so the engine's own tracing does not reuse our parent.
	parentTraceID = os.Getenv(traceIDEnvVar)
	parentSpanID = os.Getenv(spanIDEnvVar)
	os.Unsetenv(traceIDEnvVar)
	os.Unsetenv(spanIDEnvVar)

	opts := []tracer.StartOption{
		tracer.WithService("scaninit"),
		tracer.WithServiceVersion(serviceVersion),
	}
	if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" {
		opts = append(opts, tracer.WithGlobalTag("repository", repo))
	}
	if logger, err := NewDatadogLogger(os.Getenv("RUNNER_TEMP")); err == nil {
		ddLogger = logger
		opts = append(opts, tracer.WithLogger(logger))
	} else {
		util.Logger.Debug("tracer diagnostics go to stderr", "err", err)
	}
	tracer.Start(opts...)
	return true
}

// Stop flushes and stops the tracer.
func Stop() {
	tracer.Stop()
	if ddLogger != nil {
		ddLogger.Close()
		ddLogger = nil
	}
}

// StartSpanFromExistingContext starts the root span of a run,
// parented to the span the caller handed down through the
// environment, if any.
func StartSpanFromExistingContext(ctx context.Context, name string) (ddtrace.Span, context.Context) {
	parent, err := GetParentContext()
	if err != nil {
		util.Logger.Debug("ignoring parent span", "err", err)
	}
	if parent == nil {
		return tracer.StartSpanFromContext(ctx, name)
	}
	return tracer.StartSpanFromContext(ctx, name, WithParentContext(parent))
}

// StartSpan starts a child of the span in ctx. When tracing is off
// the returned span is a no-op.
func StartSpan(ctx context.Context, name string) (ddtrace.Span, context.Context) {
	return tracer.StartSpanFromContext(ctx, name)
}

// GetParentContext returns the span context described by DD_TRACE_ID
// and DD_SPAN_ID at startup, or nil if either was missing.
func GetParentContext() (*SpanContext, error) {
	if parentTraceID == "" || parentSpanID == "" {
		return nil, nil
	}
	parent := &SpanContext{}
	if err := parent.ParseTraceID(parentTraceID); err != nil {
		return nil, fmt.Errorf("%s: %w", traceIDEnvVar, err)
	}
	if err := parent.ParseSpanID(parentSpanID); err != nil {
		return nil, fmt.Errorf("%s: %w", spanIDEnvVar, err)
	}
	return parent, nil
}

// WithParentContext parents a new span to c.
func WithParentContext(c *SpanContext) ddtrace.StartSpanOption {
	return func(cfg *ddtrace.StartSpanConfig) {
		cfg.Parent = c
	}
}
