// Package tracer is a small tracing abstraction so domain services can emit
// spans without depending on OpenTelemetry APIs directly.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it and should
	// be passed to child operations.
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the onboarding pipeline.
const (
	SpanEnroll           = "pipeline.enroll"
	SpanAdvance          = "pipeline.advance"
	SpanProvision        = "pipeline.provision"
	SpanDirectoryAccount = "directory.create_or_link"
	SpanDirectoryGroup   = "directory.assign_group"
)

// Attribute keys used by the onboarding pipeline.
const (
	AttrPersonnelID  = "personnel_id"
	AttrStage        = "stage"
	AttrScanSupplied = "scan.supplied"
	AttrScanOverride = "scan.override"
	AttrGroupID      = "group_id"
)
