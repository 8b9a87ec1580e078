package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Response is the success payload of a request or uploadFile operation.
// Any HTTP status counts as success; only transport errors fail.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       []byte
}

// JSON decodes Data into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Data, v)
}

// DownloadResult is the success payload of a downloadFile operation.
type DownloadResult struct {
	StatusCode   int
	Header       http.Header
	TempFilePath string
	FilePath     string
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// HTTPTransport implements Transport on net/http. It runs each invocation
// on its own goroutine.
type HTTPTransport struct {
	httpClient  *http.Client
	middleware  []Middleware
	rateLimiter *RateLimiter
}

// NewHTTPTransport returns a transport backed by an instrumented http.Client.
func NewHTTPTransport(options ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		middleware: []Middleware{},
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithMiddleware adds middleware to the transport
func WithMiddleware(middleware ...Middleware) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.middleware = append(t.middleware, middleware...)
	}
}

// WithRateLimit makes every invocation wait for a token before sending
func WithRateLimit(rps float64, burst int) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.rateLimiter = NewRateLimiter(rps, burst)
	}
}

// WithTransportTracerProvider instruments the default round tripper with tp
func WithTransportTracerProvider(tp trace.TracerProvider) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(tp))
	}
}

// Invoke implements Transport.
func (t *HTTPTransport) Invoke(ctx context.Context, op Operation, cfg Config, cb Callbacks) {
	go func() {
		res, err := t.perform(ctx, op, cfg)
		cb.report(res, err)
	}()
}

func (t *HTTPTransport) perform(ctx context.Context, op Operation, cfg Config) (any, error) {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	switch op {
	case OpRequest:
		return t.request(ctx, cfg)
	case OpUploadFile:
		return t.upload(ctx, cfg)
	case OpDownloadFile:
		return t.download(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: operation %q", ErrUnsupportedMethod, op)
	}
}

func (t *HTTPTransport) request(ctx context.Context, cfg Config) (*Response, error) {
	target, err := targetURL(cfg)
	if err != nil {
		return nil, err
	}

	method, _ := methodString(cfg[KeyMethod])
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	data := cfg[KeyData]
	if data != nil {
		if method == http.MethodGet || method == http.MethodHead {
			if target, err = withQuery(target, data); err != nil {
				return nil, err
			}
		} else {
			if body, contentType, err = encodeBody(data); err != nil {
				return nil, err
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	applyHeaders(req, cfg[KeyHeader])

	resp, err := t.executeMiddleware(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Data: payload}, nil
}

func (t *HTTPTransport) upload(ctx context.Context, cfg Config) (*Response, error) {
	target, err := targetURL(cfg)
	if err != nil {
		return nil, err
	}
	path, _ := cfg[KeyFilePath].(string)
	if path == "" {
		return nil, fmt.Errorf("uploadFile: %s is required", KeyFilePath)
	}
	field, _ := cfg[KeyName].(string)
	if field == "" {
		field = "file"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if form, ok := asPlainObject(cfg[KeyFormData]); ok {
		for k, v := range form {
			if err := mw.WriteField(k, fmt.Sprint(v)); err != nil {
				return nil, fmt.Errorf("write form field %q: %w", k, err)
			}
		}
	}
	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	applyHeaders(req, cfg[KeyHeader])
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.executeMiddleware(req)
	if err != nil {
		return nil, fmt.Errorf("http upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Data: payload}, nil
}

func (t *HTTPTransport) download(ctx context.Context, cfg Config) (*DownloadResult, error) {
	target, err := targetURL(cfg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	applyHeaders(req, cfg[KeyHeader])

	resp, err := t.executeMiddleware(req)
	if err != nil {
		return nil, fmt.Errorf("http download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	result := &DownloadResult{StatusCode: resp.StatusCode, Header: resp.Header}

	var out *os.File
	if path, _ := cfg[KeyFilePath].(string); path != "" {
		out, err = os.Create(path)
		result.FilePath = path
	} else {
		out, err = os.CreateTemp("", "relay-download-*")
		if out != nil {
			result.TempFilePath = out.Name()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create download file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return nil, fmt.Errorf("write download file: %w", err)
	}

	return result, nil
}

func (t *HTTPTransport) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(t.middleware) == 0 {
		return t.httpClient.Do(req)
	}

	current := RoundTripperFunc(t.httpClient.Do)

	for i := len(t.middleware) - 1; i >= 0; i-- {
		middleware := t.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func targetURL(cfg Config) (string, error) {
	target, _ := cfg[KeyURL].(string)
	if target == "" {
		return "", fmt.Errorf("%s is required", KeyURL)
	}
	return target, nil
}

// withQuery appends object data to the query string. Non-object data is ignored.
func withQuery(target string, data any) (string, error) {
	params, ok := asPlainObject(data)
	if !ok || len(params) == 0 {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, fmt.Sprint(v))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func encodeBody(data any) (io.Reader, string, error) {
	switch d := data.(type) {
	case string:
		return strings.NewReader(d), "", nil
	case []byte:
		return bytes.NewReader(d), "", nil
	case io.Reader:
		return d, "", nil
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, "", fmt.Errorf("encode request data: %w", err)
		}
		return bytes.NewReader(encoded), "application/json", nil
	}
}

func applyHeaders(req *http.Request, header any) {
	switch h := header.(type) {
	case http.Header:
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	case map[string]string:
		for k, v := range h {
			req.Header.Set(k, v)
		}
	default:
		if m, ok := asPlainObject(header); ok {
			for k, v := range m {
				req.Header.Set(k, fmt.Sprint(v))
			}
		}
	}
}
