package relay

// observers holds the per-call success, fail and complete observers found
// in a config. Both the named observer types and plain func literals of the
// same shape are accepted.
type observers struct {
	success  SuccessObserver
	fail     FailObserver
	complete CompleteObserver
}

func observersFrom(cfg Config) observers {
	var o observers

	switch f := cfg[KeySuccess].(type) {
	case SuccessObserver:
		o.success = f
	case func(any) any:
		o.success = f
	case func(any):
		o.success = func(res any) any {
			f(res)
			return nil
		}
	}

	switch f := cfg[KeyFail].(type) {
	case FailObserver:
		o.fail = f
	case func(error) error:
		o.fail = f
	case func(error):
		o.fail = func(err error) error {
			f(err)
			return nil
		}
	}

	switch f := cfg[KeyComplete].(type) {
	case CompleteObserver:
		o.complete = f
	case func(any):
		o.complete = f
	}

	return o
}

func (o observers) onSuccess(res any) any {
	if o.success == nil {
		return nil
	}
	return o.success(res)
}

func (o observers) onFail(err error) error {
	if o.fail == nil {
		return nil
	}
	return o.fail(err)
}

func (o observers) onComplete(res any) {
	if o.complete != nil {
		o.complete(res)
	}
}
