package relay

import "context"

// Callbacks receive the outcome of one transport invocation.
// Exactly one of Success or Fail is called, followed by Complete.
type Callbacks struct {
	Success  func(res any)
	Fail     func(err error)
	Complete func(res any)
}

// report delivers res or err to the matching callback, then Complete with
// the same payload. Nil callbacks are skipped.
func (cb Callbacks) report(res any, err error) {
	if err != nil {
		if cb.Fail != nil {
			cb.Fail(err)
		}
		if cb.Complete != nil {
			cb.Complete(err)
		}
		return
	}
	if cb.Success != nil {
		cb.Success(res)
	}
	if cb.Complete != nil {
		cb.Complete(res)
	}
}

// Transport is the externally supplied network primitive. Invoke must
// report its outcome asynchronously through cb.
type Transport interface {
	Invoke(ctx context.Context, op Operation, cfg Config, cb Callbacks)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, op Operation, cfg Config, cb Callbacks)

func (f TransportFunc) Invoke(ctx context.Context, op Operation, cfg Config, cb Callbacks) {
	f(ctx, op, cfg, cb)
}

// BlockingTransport adapts a synchronous function. Each invocation runs on
// its own goroutine.
type BlockingTransport func(ctx context.Context, op Operation, cfg Config) (any, error)

func (f BlockingTransport) Invoke(ctx context.Context, op Operation, cfg Config, cb Callbacks) {
	go func() {
		res, err := f(ctx, op, cfg)
		cb.report(res, err)
	}()
}
