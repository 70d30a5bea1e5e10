// Package tracer provides a small tracing abstraction over OpenTelemetry.
//
// Consent transitions open one span each. Callers depend on Tracer, so tests
// use NoopTracer and production wires OTelTracer against the global provider.
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

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span; the returned context carries it to child operations.
	//
	//   ctx, span := t.Start(ctx, tracer.SpanAcceptAll,
	//       tracer.String(tracer.AttrAction, "accept_all"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the consent service.
const (
	SpanAcceptAll  = "consent.accept_all"
	SpanDeclineAll = "consent.decline_all"
	SpanSaveCustom = "consent.save_custom"
	SpanWithdraw   = "consent.withdraw"
)

// Attribute keys used by the consent service.
const (
	AttrAction          = "consent.action"
	AttrServicesTotal   = "consent.services_total"
	AttrServicesEnabled = "consent.services_enabled"
	AttrIgnoredIDs      = "consent.ignored_ids"
)

// Event names used by the consent service.
const (
	EventRequiredOverride = "consent.required_override"
)
