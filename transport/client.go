package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/deferhttp/logger"
	"github.com/kbukum/deferhttp/observability"
	"github.com/kbukum/deferhttp/resilience"
)

var errTooManyRedirects = errors.New("too many redirects")

type proxyKey struct{}

// Client is an asynchronous HTTP client.
type Client struct {
	httpClient *http.Client
	opts       ClientOptions
	log        *logger.Logger

	cb *resilience.CircuitBreaker
	rl *resilience.RateLimiter
	bh *resilience.Bulkhead

	// base is canceled by Close and aborts every exchange still in flight.
	base       context.Context
	cancelBase context.CancelFunc

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a client from opts.
func New(opts ClientOptions) (*Client, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rt, err := newRoundTripper(&opts)
	if err != nil {
		return nil, err
	}

	jar := opts.CookieJar
	if jar == nil {
		if jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err != nil {
			return nil, fmt.Errorf("transport: creating cookie jar: %w", err)
		}
	}

	c := &Client{
		httpClient: &http.Client{Transport: rt, Jar: jar},
		opts:       opts,
		log:        logger.Get("deferhttp.transport").WithFields(logger.Fields("client", opts.Name)),
		bh:         resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: opts.Limit, MaxWait: -1}),
	}
	if opts.CircuitBreaker != nil {
		cfg := *opts.CircuitBreaker
		if cfg.Name == "" {
			cfg.Name = opts.Name
		}
		c.cb = resilience.NewCircuitBreaker(cfg)
	}
	if opts.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*opts.RateLimiter)
	}
	c.base, c.cancelBase = context.WithCancel(context.Background())
	return c, nil
}

func newRoundTripper(opts *ClientOptions) (http.RoundTripper, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = opts.LimitPerHost
	t.Proxy = func(req *http.Request) (*url.URL, error) {
		if p, ok := req.Context().Value(proxyKey{}).(*url.URL); ok {
			return p, nil
		}
		if opts.TrustEnv {
			return http.ProxyFromEnvironment(req)
		}
		return nil, nil
	}

	tlsCfg, err := opts.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		t.TLSClientConfig = tlsCfg
	}

	switch opts.Version {
	case HTTP10:
		// net/http always writes HTTP/1.1 request lines; one exchange per
		// connection is the observable HTTP/1.0 behaviour.
		t.DisableKeepAlives = true
		fallthrough
	case HTTP11:
		t.ForceAttemptHTTP2 = false
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	case HTTP2:
		if _, err := http2.ConfigureTransports(t); err != nil {
			return nil, fmt.Errorf("transport: configuring http2: %w", err)
		}
	}
	return t, nil
}

// Request validates opts, builds the request and starts a single exchange
// in the background. The returned Pending reports its outcome.
func (c *Client) Request(ctx context.Context, method, rawURL string, opts RequestOptions) (*Pending, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	build, err := c.prepare(method, rawURL, &opts)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.base, cancel)
	p := newPending(cancel)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer stop()
		defer cancel()
		p.complete(c.dispatch(ctx, method, build, &opts))
	}()
	return p, nil
}

// dispatch runs the resilience stages around one exchange.
func (c *Client) dispatch(ctx context.Context, method string, build requestBuilder, opts *RequestOptions) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrMethod, method)

	start := time.Now()
	resp, err := c.run(ctx, build, opts)
	if err != nil {
		err = classifyError(ctx, err)
		observability.SetSpanError(ctx, err)
		c.log.Debug("exchange failed", logger.MergeWithDuration(logger.ErrorFields("dispatch", err), time.Since(start)))
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatusCode, resp.Status())
	c.log.Debug("exchange complete", logger.MergeWithDuration(logger.Fields(
		logger.FieldMethod, method,
		logger.FieldURL, resp.URL().String(),
		logger.FieldStatus, resp.Status(),
	), time.Since(start)))

	raise := c.opts.RaiseForStatus
	if opts.RaiseForStatus != nil {
		raise = *opts.RaiseForStatus
	}
	if raise {
		if err := resp.RaiseForStatus(); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Client) run(ctx context.Context, build requestBuilder, opts *RequestOptions) (*Response, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var resp *Response
	call := func() error {
		var err error
		resp, err = c.retry(ctx, build, opts)
		if err == nil && resp.Status() >= http.StatusInternalServerError {
			// Server errors count against the circuit breaker.
			return ClassifyStatus(resp.Status(), nil)
		}
		return err
	}
	err := c.bh.Execute(ctx, func() error {
		if c.cb == nil {
			return call()
		}
		return c.cb.Execute(call)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, NewConnectionError(err)
	}
	if err != nil && resp != nil && StatusOf(err) > 0 {
		// A failing status is still a response; the caller's error policy
		// decides what it means.
		return resp, nil
	}
	return resp, err
}

// retry performs the exchange, retrying transport failures and, when retry
// is configured, retryable statuses. The last response is kept so a
// retried status still reaches the caller.
func (c *Client) retry(ctx context.Context, build requestBuilder, opts *RequestOptions) (*Response, error) {
	if c.opts.Retry == nil {
		return c.exchange(ctx, build, opts)
	}

	cfg := *c.opts.Retry
	if cfg.RetryIf == nil {
		cfg.RetryIf = IsRetryable
	}
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Debug("retrying exchange", logger.Fields("attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
	}

	var last *Response
	_, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
		resp, err := c.exchange(ctx, build, opts)
		if err != nil {
			return nil, err
		}
		last = resp
		if e := ClassifyStatus(resp.Status(), nil); e != nil && e.Retryable {
			return nil, e
		}
		return resp, nil
	})
	return last, err
}

// exchange sends one request and buffers the response body.
func (c *Client) exchange(ctx context.Context, build requestBuilder, opts *RequestOptions) (*Response, error) {
	timeout := c.opts.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, err
	}

	hc := *c.httpClient
	hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if !*opts.AllowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) > opts.MaxRedirects {
			return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, opts.MaxRedirects)
		}
		return nil
	}

	raw, err := hc.Do(req)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	resp := NewResponse(raw)
	if _, err := resp.Read(); err != nil {
		return nil, classifyError(ctx, err)
	}
	return resp, nil
}

// requestBuilder creates a fresh *http.Request per attempt.
type requestBuilder func(ctx context.Context) (*http.Request, error)

// prepare resolves everything that does not depend on the attempt, so
// invalid input fails before anything is dispatched.
func (c *Client) prepare(method, rawURL string, opts *RequestOptions) (requestBuilder, error) {
	target, err := c.resolveURL(rawURL)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid url %q: %v", rawURL, err))
	}
	if len(opts.Params) > 0 {
		q := target.Query()
		for _, k := range slices.Sorted(maps.Keys(opts.Params)) {
			q.Add(k, opts.Params[k])
		}
		target.RawQuery = q.Encode()
	}

	var proxy *url.URL
	if opts.Proxy != "" {
		if proxy, err = url.Parse(opts.Proxy); err != nil {
			return nil, NewValidationError(fmt.Sprintf("invalid proxy %q: %v", opts.Proxy, err))
		}
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	header := make(http.Header)
	header.Set("User-Agent", c.opts.UserAgent)
	for k, v := range c.opts.Headers {
		header.Set(k, v)
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		header.Set(k, v)
	}

	auth := c.opts.Auth
	if opts.Auth != nil {
		auth = opts.Auth
	}
	method = strings.ToUpper(method)
	urlStr := target.String()

	return func(ctx context.Context) (*http.Request, error) {
		if proxy != nil {
			ctx = context.WithValue(ctx, proxyKey{}, proxy)
		}
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
		}
		req.Header = header.Clone()
		for _, name := range slices.Sorted(maps.Keys(opts.Cookies)) {
			req.AddCookie(&http.Cookie{Name: name, Value: opts.Cookies[name]})
		}
		auth.apply(req)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
		return req, nil
	}, nil
}

func (c *Client) resolveURL(rawURL string) (*url.URL, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() || c.opts.BaseURL == "" {
		return ref, nil
	}
	return url.Parse(strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimLeft(rawURL, "/"))
}

// encodeBody converts the data or json parameter into bytes and a content
// type. Bodies are buffered so retries can resend them.
func encodeBody(opts *RequestOptions) ([]byte, string, error) {
	if opts.JSON != nil {
		data, err := json.Marshal(opts.JSON)
		return data, "application/json", err
	}
	switch v := opts.Data.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "application/octet-stream", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case io.Reader:
		data, err := io.ReadAll(v)
		return data, "application/octet-stream", err
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	case map[string]string:
		form := url.Values{}
		for k, val := range v {
			form.Set(k, val)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	case map[string]any:
		form := url.Values{}
		for k, val := range v {
			form.Set(k, fmt.Sprint(val))
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", fmt.Errorf("unsupported data type %T", opts.Data)
	}
}

// Close stops accepting requests, cancels in-flight exchanges and waits for
// them to wind down, or for ctx to end.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancelBase()
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	defer c.httpClient.CloseIdleConnections()
	select {
	case <-done:
		c.log.Debug("transport closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.opts.Name
}

// IsAvailable reports whether the client accepts requests and its circuit
// breaker, if any, is not open.
func (c *Client) IsAvailable(_ context.Context) bool {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return false
	}
	return c.cb == nil || c.cb.State() != resilience.StateOpen
}

// Options returns the effective client options.
func (c *Client) Options() ClientOptions {
	return c.opts
}
