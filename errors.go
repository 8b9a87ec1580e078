package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/ambiyansyah-risyal/relay/internal/gate"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCanceled is delivered to calls waiting on a locked gate when Cancel is called
	ErrCanceled = gate.ErrCanceled

	// ErrUnsupportedMethod is returned when a method is neither a common verb nor a file operation
	ErrUnsupportedMethod = errors.New("relay: method is not supported or wrong invoke style")

	// ErrNoTransport is returned when a client has no transport configured
	ErrNoTransport = errors.New("relay: no transport configured")
)

// Error types
const (
	ErrorTypeCanceled          = "Canceled"
	ErrorTypeUnsupportedMethod = "UnsupportedMethod"
	ErrorTypeInterceptor       = "Interceptor"
	ErrorTypeValidation        = "Validation"
	ErrorTypeTransport         = "Transport"
)

// Error is returned for failures raised by the pipeline itself. Transport
// failures reach the caller unwrapped.
type Error struct {
	Type      string
	Message   string
	Cause     error
	RequestID string
	Method    string
	URL       string
	Timestamp time.Time
}

// IsCanceled reports whether err came from a gate cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsUnsupportedMethod reports whether err came from method routing.
func IsUnsupportedMethod(err error) bool {
	return errors.Is(err, ErrUnsupportedMethod)
}

// Error implements error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func newError(errorType, message string, cause error, call *Call, cfg Config) *Error {
	e := &Error{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
	if call != nil {
		e.RequestID = call.ID
	}
	if cfg != nil {
		e.Method, _ = methodString(cfg[KeyMethod])
		e.URL, _ = cfg[KeyURL].(string)
	}
	return e
}
