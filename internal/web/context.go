// Package web carries per request state through the context.
package web

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const key ctxKey = 1

// Values represent state for each request.
type Values struct {
	TraceID   string
	RequestID string
	Tracer    trace.Tracer
	Now       time.Time
}

// SetValues set web values to the context.
func SetValues(ctx context.Context, v *Values) context.Context {
	return context.WithValue(ctx, key, v)
}

// GetTraceID returns the trace id from the context.
func GetTraceID(ctx context.Context) string {
	v, ok := ctx.Value(key).(*Values)
	if !ok {
		return trace.TraceID{}.String()
	}
	return v.TraceID
}

// GetRequestID returns the request id assigned by the router.
func GetRequestID(ctx context.Context) string {
	v, ok := ctx.Value(key).(*Values)
	if !ok {
		return ""
	}
	return v.RequestID
}

// GetTime returns the time the request started.
func GetTime(ctx context.Context) time.Time {
	v, ok := ctx.Value(key).(*Values)
	if !ok {
		return time.Now().UTC()
	}
	return v.Now
}

// AddSpan adds a OpenTelemetry span to the trace and context.
func AddSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := ctx.Value(key).(*Values)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := v.Tracer.Start(ctx, spanName)
	span.SetAttributes(keyValues...)

	return ctx, span
}
