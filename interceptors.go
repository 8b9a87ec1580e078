package relay

import (
	"sync"

	"github.com/ambiyansyah-risyal/relay/internal/gate"
)

// Gate events reported to logs and metrics.
const (
	GateEventLock   = "lock"
	GateEventUnlock = "unlock"
	GateEventCancel = "cancel"
)

// Interceptors holds a client's handler registrations and its gate.
// Each Client owns exactly one.
type Interceptors struct {
	Request  *RequestInterceptor
	Response *ResponseInterceptor

	gate    *gate.Gate
	onEvent func(event string, changed bool)
}

func newInterceptors() *Interceptors {
	return &Interceptors{
		Request:  &RequestInterceptor{},
		Response: &ResponseInterceptor{},
		gate:     gate.New(),
	}
}

// Lock pauses calls at their next gate wait until Unlock or Cancel.
// Locking while already locked keeps the current pause in effect.
func (i *Interceptors) Lock() {
	i.notify(GateEventLock, i.gate.Lock())
}

// Unlock resumes every paused call. No-op when not locked.
func (i *Interceptors) Unlock() {
	i.notify(GateEventUnlock, i.gate.Unlock())
}

// Cancel rejects every paused call with ErrCanceled. No-op when not locked.
func (i *Interceptors) Cancel() {
	i.notify(GateEventCancel, i.gate.Cancel(ErrCanceled))
}

// Locked reports whether calls are currently being paused.
func (i *Interceptors) Locked() bool {
	return i.gate.Locked()
}

// Waiting returns the number of calls paused right now.
func (i *Interceptors) Waiting() int {
	return i.gate.Waiting()
}

func (i *Interceptors) notify(event string, changed bool) {
	if i.onEvent != nil {
		i.onEvent(event, changed)
	}
}

// RequestInterceptor is the single request-side slot.
type RequestInterceptor struct {
	mu      sync.RWMutex
	handler RequestHandler
}

// Use registers h, replacing any previous handler. A nil h clears the slot.
func (r *RequestInterceptor) Use(h RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// Handler returns the registered handler or nil.
func (r *RequestInterceptor) Handler() RequestHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handler
}

// ResponseInterceptor is the single response-side slot: one success handler
// and one error handler.
type ResponseInterceptor struct {
	mu         sync.RWMutex
	handler    ResponseHandler
	errHandler ErrorHandler
}

// Use registers both handlers, replacing the previous pair. Either may be nil.
func (r *ResponseInterceptor) Use(h ResponseHandler, eh ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
	r.errHandler = eh
}

// Handlers returns the registered success and error handlers.
func (r *ResponseInterceptor) Handlers() (ResponseHandler, ErrorHandler) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handler, r.errHandler
}
