package relay

import (
	"context"
	"net/http"
)

// Config is a request configuration: per-call options or instance defaults.
// Nested plain objects are Config or map[string]any values.
type Config map[string]any

// Well-known configuration keys
const (
	KeyURL      = "url"
	KeyMethod   = "method"
	KeyData     = "data"
	KeyHeader   = "header"
	KeyBaseURL  = "baseURL"
	KeySuccess  = "success"
	KeyFail     = "fail"
	KeyComplete = "complete"
	KeyFilePath = "filePath"
	KeyName     = "name"
	KeyFormData = "formData"
)

// Method is a request method or a file-transfer operation name.
type Method string

// Common request methods. Matched case-insensitively by the pipeline.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// File-transfer methods. Matched exactly.
const (
	MethodUploadFile   Method = "uploadFile"
	MethodDownloadFile Method = "downloadFile"
)

// Operation names the transport primitive a call is routed to.
type Operation string

const (
	OpRequest      Operation = "request"
	OpUploadFile   Operation = "uploadFile"
	OpDownloadFile Operation = "downloadFile"
)

// RequestHandler rewrites the effective config before transport. A nil
// Config keeps the merged config unchanged.
type RequestHandler func(ctx context.Context, cfg Config) (Config, error)

// ResponseHandler transforms a successful result. A nil value keeps the raw result.
type ResponseHandler func(ctx context.Context, res any, cfg, opts Config) (any, error)

// ErrorHandler transforms a transport failure. A nil error keeps the raw error.
type ErrorHandler func(ctx context.Context, err error, cfg, opts Config) error

// SuccessObserver is a per-call success observer stored under KeySuccess.
type SuccessObserver func(res any) any

// FailObserver is a per-call failure observer stored under KeyFail.
type FailObserver func(err error) error

// CompleteObserver is a per-call completion observer stored under KeyComplete.
type CompleteObserver func(res any)

// Middleware wraps the HTTP transport round trip.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option configures a Client.
type Option func(*Client)
