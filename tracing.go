package relay

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = modulePath

// Span names and attribute keys
const (
	SpanRequest = "relay.request"

	AttrRequestID  = "relay.request_id"
	AttrOperation  = "relay.operation"
	AttrOutcome    = "relay.outcome"
	AttrHTTPURL    = "http.url"
	AttrHTTPMethod = "http.method"
)

func startSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

func setSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func setSpanOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

func configAttrs(cfg Config) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if u, ok := cfg[KeyURL].(string); ok {
		attrs = append(attrs, attribute.String(AttrHTTPURL, u))
	}
	if m, ok := methodString(cfg[KeyMethod]); ok && m != "" {
		attrs = append(attrs, attribute.String(AttrHTTPMethod, m))
	}
	return attrs
}
