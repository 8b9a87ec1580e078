package relay

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingSuccessSpan(t *testing.T) {
	tp, recorder := newRecordingProvider(t)
	client := newTestClient(Config{KeyBaseURL: testBaseURL}, newRecordingTransport(nil),
		WithTracerProvider(tp),
		WithRequestIDGenerator(func() string { return "span-1" }),
	)

	if _, err := client.Get(context.Background(), "users", nil, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanRequest {
		t.Errorf("Expected span %s, got %s", SpanRequest, span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("Expected ok status, got %v", span.Status())
	}

	wants := map[string]string{
		AttrRequestID:  "span-1",
		AttrHTTPURL:    "https://api.x.com/users",
		AttrHTTPMethod: "GET",
		AttrOperation:  string(OpRequest),
		AttrOutcome:    OutcomeSuccess,
	}
	for key, want := range wants {
		v, ok := spanAttr(span, key)
		if !ok || v.AsString() != want {
			t.Errorf("attribute %s: expected %q, got %q (present=%v)", key, want, v.AsString(), ok)
		}
	}
}

func TestTracingErrorSpan(t *testing.T) {
	tp, recorder := newRecordingProvider(t)
	client := newTestClient(nil, newRecordingTransport(func(op Operation, cfg Config) (any, error) {
		return nil, errors.New("refused")
	}), WithTracerProvider(tp))

	if _, err := client.Do(context.Background(), Config{KeyURL: "https://h"}); err == nil {
		t.Fatal("Expected error")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "refused" {
		t.Errorf("Expected error status, got %v", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("Expected the error to be recorded as a span event")
	}
	if v, _ := spanAttr(spans[0], AttrOutcome); v.AsString() != OutcomeFailure {
		t.Errorf("Expected failure outcome, got %q", v.AsString())
	}
}

func TestConfigAttrs(t *testing.T) {
	if attrs := configAttrs(Config{KeyURL: 1, KeyMethod: ""}); len(attrs) != 0 {
		t.Errorf("Expected no attributes for non-string url and empty method, got %v", attrs)
	}
	if attrs := configAttrs(Config{KeyURL: "u", KeyMethod: MethodUploadFile}); len(attrs) != 2 {
		t.Errorf("Expected 2 attributes, got %v", attrs)
	}
}

func TestSpanHelpersNilSafe(t *testing.T) {
	setSpanError(nil, errors.New("x"))
	setSpanOK(nil)

	ctx, span := startSpan(context.Background(), nil, SpanRequest)
	if ctx == nil || span == nil {
		t.Error("startSpan without tracer should return the context span")
	}
}
