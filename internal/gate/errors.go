package gate

import "errors"

// ErrCanceled is the default reason delivered to waiters by Cancel.
var ErrCanceled = errors.New("relay: canceled")
