package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ambiyansyah-risyal/relay/internal/gate"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Gate phases
const (
	phasePre  = "pre"
	phasePost = "post"
)

// Client is a dispatcher bound to fixed defaults and a fixed transport. It
// merges per-call options over the defaults, runs the registered
// interceptors around the transport and pauses calls while its gate is
// locked. It is safe for concurrent use.
type Client struct {
	defaults        Config
	transport       Transport
	interceptors    *Interceptors
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	tracer          trace.Tracer
	validationError error
}

// New constructs a Client with the given defaults. Without WithTransport the
// client dispatches through a fresh HTTPTransport. A best effort validation
// is performed; call IsValid / ValidationError for errors.
func New(defaults Config, options ...Option) *Client {
	client := &Client{
		defaults:     cloneConfig(defaults),
		transport:    NewHTTPTransport(),
		interceptors: newInterceptors(),
		metrics:      nil,
		debug:        DefaultDebugConfig(),
		logger:       nil,
		tracer:       noop.NewTracerProvider().Tracer(tracerName),
	}

	for _, option := range options {
		option(client)
	}

	client.interceptors.onEvent = client.recordGateEvent

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Create builds an additional, independently configured client.
func Create(defaults Config, options ...Option) *Client {
	return New(defaults, options...)
}

// Defaults returns a copy of the client's default configuration.
func (c *Client) Defaults() Config {
	return cloneConfig(c.defaults)
}

// Interceptors returns the client's interceptor registry.
func (c *Client) Interceptors() *Interceptors {
	return c.interceptors
}

// Lock pauses calls at their next gate wait.
func (c *Client) Lock() { c.interceptors.Lock() }

// Unlock resumes paused calls.
func (c *Client) Unlock() { c.interceptors.Unlock() }

// Cancel rejects paused calls with ErrCanceled.
func (c *Client) Cancel() { c.interceptors.Cancel() }

// Do dispatches options and waits for the outcome.
func (c *Client) Do(ctx context.Context, options Config) (any, error) {
	return c.Dispatch(ctx, options).Wait(ctx)
}

// Dispatch starts the pipeline for options and returns the pending call.
// If the gate is locked the call is queued on it before Dispatch returns, so
// a following Unlock or Cancel always applies to it.
func (c *Client) Dispatch(ctx context.Context, options Config) *Call {
	call := newCall(c.requestID(), cloneConfig(options))
	call.ticket = c.enqueue(call, phasePre)
	go c.run(ctx, call)
	return call
}

// Get performs a GET with data and extra options.
func (c *Client) Get(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodGet, url, data, options)
}

// Post performs a POST with data and extra options.
func (c *Client) Post(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodPost, url, data, options)
}

// Put performs a PUT with data and extra options.
func (c *Client) Put(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodPut, url, data, options)
}

// Delete performs a DELETE with data and extra options.
func (c *Client) Delete(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodDelete, url, data, options)
}

// Connect performs a CONNECT with data and extra options.
func (c *Client) Connect(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodConnect, url, data, options)
}

// Head performs a HEAD with data and extra options.
func (c *Client) Head(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodHead, url, data, options)
}

// Options performs an OPTIONS with data and extra options.
func (c *Client) Options(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodOptions, url, data, options)
}

// Trace performs a TRACE with data and extra options.
func (c *Client) Trace(ctx context.Context, url string, data any, options Config) (any, error) {
	return c.verb(ctx, MethodTrace, url, data, options)
}

// UploadFile dispatches an uploadFile operation.
func (c *Client) UploadFile(ctx context.Context, url string, options Config) (any, error) {
	return c.fileOp(ctx, MethodUploadFile, url, options)
}

// DownloadFile dispatches a downloadFile operation.
func (c *Client) DownloadFile(ctx context.Context, url string, options Config) (any, error) {
	return c.fileOp(ctx, MethodDownloadFile, url, options)
}

// verb builds {url, data, ...options, method}.
func (c *Client) verb(ctx context.Context, method Method, url string, data any, options Config) (any, error) {
	cfg := make(Config, len(options)+3)
	cfg[KeyURL] = url
	cfg[KeyData] = data
	for k, v := range options {
		cfg[k] = v
	}
	cfg[KeyMethod] = string(method)
	return c.Do(ctx, cfg)
}

// fileOp builds {url, ...options, method}.
func (c *Client) fileOp(ctx context.Context, method Method, url string, options Config) (any, error) {
	cfg := make(Config, len(options)+2)
	cfg[KeyURL] = url
	for k, v := range options {
		cfg[k] = v
	}
	cfg[KeyMethod] = string(method)
	return c.Do(ctx, cfg)
}

func (c *Client) run(ctx context.Context, call *Call) {
	start := time.Now()
	method := methodLabel(call.options)

	ctx, span := startSpan(ctx, c.tracer, SpanRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(AttrRequestID, call.ID)),
	)

	if c.logRequests() {
		c.logger.Debug("Dispatching request", "requestID", call.ID, "method", method)
	}

	c.metrics.RecordRequestStart(method)

	res, err := c.process(ctx, call, span)

	c.metrics.RecordRequestEnd(method)
	outcome := outcomeOf(err)
	c.metrics.RecordRequest(method, outcome, time.Since(start))
	span.SetAttributes(attribute.String(AttrOutcome, outcome))

	if err != nil {
		setSpanError(span, err)
		var relayErr *Error
		if errors.As(err, &relayErr) {
			c.metrics.RecordError(relayErr.Type, method)
		}
	} else {
		setSpanOK(span)
	}

	if c.logRequests() {
		c.logger.Debug("Request settled", "requestID", call.ID, "outcome", outcome, "duration", time.Since(start))
	}

	span.End()
	call.settle(res, err)
}

func (c *Client) process(ctx context.Context, call *Call, span trace.Span) (any, error) {
	if err := c.waitGate(ctx, call, phasePre, call.ticket); err != nil {
		return nil, err
	}

	call.setState(StateBuildingConfig)
	cfg, err := c.buildConfig(ctx, call)
	if err != nil {
		return nil, err
	}
	call.setConfig(cfg)
	span.SetAttributes(configAttrs(cfg)...)

	op, payload, err := route(cfg)
	if err != nil {
		if c.logRequests() {
			c.logger.Warn("Unsupported method", "requestID", call.ID, "method", cfg[KeyMethod])
		}
		return nil, newError(ErrorTypeUnsupportedMethod, fmt.Sprintf("method %v cannot be dispatched", cfg[KeyMethod]), err, call, cfg)
	}
	span.SetAttributes(attribute.String(AttrOperation, string(op)))

	call.setState(StateTransportPending)
	res, transportErr := c.invoke(ctx, op, payload)

	call.setState(StateQueuedPost)
	if err := c.waitGate(ctx, call, phasePost, c.enqueue(call, phasePost)); err != nil {
		return nil, err
	}

	handler, errHandler := c.interceptors.Response.Handlers()

	if transportErr != nil {
		if errHandler == nil {
			return nil, transportErr
		}
		override := errHandler(ctx, transportErr, cfg, call.options)
		c.recordInterceptor(call, "response_error", nil)
		if override != nil {
			return nil, override
		}
		return nil, transportErr
	}

	if handler == nil {
		return res, nil
	}
	out, err := handler(ctx, res, cfg, call.options)
	c.recordInterceptor(call, "response", err)
	if err != nil {
		return nil, err
	}
	if out != nil {
		return out, nil
	}
	return res, nil
}

// buildConfig merges options over defaults and applies the request handler.
func (c *Client) buildConfig(ctx context.Context, call *Call) (Config, error) {
	merged := Merge(call.options, c.defaults)

	handler := c.interceptors.Request.Handler()
	if handler == nil {
		return merged, nil
	}

	out, err := handler(ctx, merged)
	c.recordInterceptor(call, "request", err)
	if err != nil {
		return nil, newError(ErrorTypeInterceptor, "request interceptor failed", err, call, merged)
	}
	if out == nil {
		return merged, nil
	}
	return out, nil
}

// enqueue takes a place on the gate for phase. It returns nil when the gate
// is open.
func (c *Client) enqueue(call *Call, phase string) *gate.Ticket {
	ticket := c.interceptors.gate.Enqueue()
	if ticket == nil {
		return nil
	}

	if c.logGate() {
		c.logger.Debug("Waiting on interceptor gate", "requestID", call.ID, "phase", phase)
	}
	c.metrics.RecordGateWaitStart(phase)
	return ticket
}

func (c *Client) waitGate(ctx context.Context, call *Call, phase string, ticket *gate.Ticket) error {
	if ticket == nil {
		return nil
	}

	err := ticket.Wait(ctx)
	c.metrics.RecordGateWaitEnd(phase)

	if c.logGate() {
		c.logger.Debug("Released from interceptor gate", "requestID", call.ID, "phase", phase, "canceled", err != nil)
	}
	return c.gateResult(call, err)
}

func (c *Client) gateResult(call *Call, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCanceled) {
		return newError(ErrorTypeCanceled, "request canceled while paused", err, call, call.Config())
	}
	return err
}

// invoke calls the transport and waits for its first reported outcome.
func (c *Client) invoke(ctx context.Context, op Operation, cfg Config) (any, error) {
	if c.transport == nil {
		return nil, ErrNoTransport
	}

	obs := observersFrom(cfg)
	payload := without(cfg, KeySuccess, KeyFail, KeyComplete)

	type outcome struct {
		res any
		err error
	}
	ch := make(chan outcome, 1)
	report := func(o outcome) {
		select {
		case ch <- o:
		default:
		}
	}

	c.transport.Invoke(ctx, op, payload, Callbacks{
		Success: func(res any) {
			if v := obs.onSuccess(res); v != nil {
				res = v
			}
			report(outcome{res: res})
		},
		Fail: func(err error) {
			if err == nil {
				err = newError(ErrorTypeTransport, "transport reported failure without an error", nil, nil, cfg)
			}
			if e := obs.onFail(err); e != nil {
				err = e
			}
			report(outcome{err: err})
		},
		Complete: obs.onComplete,
	})

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) recordInterceptor(call *Call, phase string, err error) {
	c.metrics.RecordInterceptor(phase, err == nil)
	if c.logInterceptors() {
		if err != nil {
			c.logger.Warn("Interceptor failed", "requestID", call.ID, "phase", phase, "error", err.Error())
		} else {
			c.logger.Debug("Interceptor applied", "requestID", call.ID, "phase", phase)
		}
	}
}

func (c *Client) recordGateEvent(event string, changed bool) {
	if changed {
		c.metrics.RecordGateEvent(event)
	}
	if c.logGate() {
		c.logger.Info("Interceptor gate "+event, "changed", changed, "waiting", c.interceptors.Waiting())
	}
}

func (c *Client) requestID() string {
	if c.debug != nil && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return uuid.NewString()
}

var commonMethods = map[string]bool{
	"get":     true,
	"post":    true,
	"put":     true,
	"delete":  true,
	"connect": true,
	"head":    true,
	"options": true,
	"trace":   true,
}

var fileOperations = map[string]Operation{
	string(MethodUploadFile):   OpUploadFile,
	string(MethodDownloadFile): OpDownloadFile,
}

// route picks the transport operation for cfg. Common verbs keep the full
// config; file operations drop the method key.
func route(cfg Config) (Operation, Config, error) {
	raw, present := cfg[KeyMethod]
	if !present || raw == nil {
		return OpRequest, cfg, nil
	}

	method, ok := methodString(raw)
	if !ok {
		return "", nil, ErrUnsupportedMethod
	}
	if method == "" || commonMethods[strings.ToLower(method)] {
		return OpRequest, cfg, nil
	}
	if op, ok := fileOperations[method]; ok {
		return op, without(cfg, KeyMethod), nil
	}
	return "", nil, ErrUnsupportedMethod
}

func methodString(v any) (string, bool) {
	switch m := v.(type) {
	case string:
		return m, true
	case Method:
		return string(m), true
	default:
		return "", false
	}
}

func methodLabel(cfg Config) string {
	m, ok := methodString(cfg[KeyMethod])
	if !ok || m == "" {
		return "DEFAULT"
	}
	if commonMethods[strings.ToLower(m)] {
		return strings.ToUpper(m)
	}
	if _, ok := fileOperations[m]; ok {
		return m
	}
	return "OTHER"
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsCanceled(err):
		return OutcomeCanceled
	case IsUnsupportedMethod(err):
		return OutcomeUnsupported
	default:
		return OutcomeFailure
	}
}
