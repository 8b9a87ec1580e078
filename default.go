package relay

import "context"

// std is the ready-to-use client: empty defaults, HTTP transport, no
// metrics registration.
var std = New(nil)

// Default returns the package-level client.
func Default() *Client {
	return std
}

// Do dispatches options through the default client.
func Do(ctx context.Context, options Config) (any, error) {
	return std.Do(ctx, options)
}
