// Package transport is the asynchronous HTTP client a deferred session
// drives.
//
// Request validates and builds the request synchronously, then performs
// exactly one exchange on its own goroutine and returns a Pending handle
// straight away. Each exchange passes through the configured resilience
// stages (rate limiter, bulkhead, circuit breaker, retry) before reaching
// net/http, and the response body is buffered before the exchange ends.
//
//	c, err := transport.New(transport.ClientOptions{BaseURL: "https://api.example.com"})
//	p, err := c.Request(ctx, http.MethodGet, "/users/1", transport.RequestOptions{})
//	resp, err := p.Await(ctx)
//	if err := resp.RaiseForStatus(); err != nil { ... }
package transport
