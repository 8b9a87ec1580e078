// Package relay is a request dispatcher that layers interceptors, request
// pausing and configuration merging over a pluggable transport:
//
//   - Instance defaults merged under per-call options, with baseURL joining
//   - One request interceptor and one response/error interceptor pair
//   - Lock / Unlock / Cancel to pause every call at its next gate wait and
//     later resume or reject them together (e.g. while a token refreshes)
//   - Verb shortcuts (Get, Post, ... UploadFile, DownloadFile)
//   - Prometheus metrics, OpenTelemetry spans and slog debug logging
//
// Each call passes through two gate waits, one before its config is built and
// one after the transport reports back, so a lock taken mid-flight still holds
// the response back from interceptors and the caller.
//
// Typical usage:
//
//	client := relay.New(relay.Config{"baseURL": "https://api.example.com/"})
//	client.Interceptors().Request.Use(func(ctx context.Context, cfg relay.Config) (relay.Config, error) {
//	    cfg["header"] = map[string]string{"Authorization": "Bearer " + token()}
//	    return cfg, nil
//	})
//	res, err := client.Get(ctx, "users/1", nil, nil)
//
// The transport is an external collaborator. HTTPTransport is the default;
// supply any Transport with WithTransport. The pipeline itself performs no
// retries, caching or timeouts.
package relay
