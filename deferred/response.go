package deferred

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kbukum/deferhttp/logger"
	"github.com/kbukum/deferhttp/observability"
	"github.com/kbukum/deferhttp/transport"
)

const resolveKey = "resolve"

// Pending is the in-flight exchange a Response owns.
type Pending interface {
	Await(ctx context.Context) (*transport.Response, error)
	Close() error
}

// Option configures a Response.
type Option func(*Response)

// WithMode sets the error mode. Defaults to OptIn.
func WithMode(mode ErrorMode) Option {
	return func(r *Response) { r.mode = mode }
}

// WithLogger sets the logger used for resolution events.
func WithLogger(l *logger.Logger) Option {
	return func(r *Response) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records resolutions and policy outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Response) { r.metrics = m }
}

// WithID sets the response id. Defaults to a random UUID.
func WithID(id string) Option {
	return func(r *Response) {
		if id != "" {
			r.id = id
		}
	}
}

// WithMethod records the request method for logs and metrics.
func WithMethod(method string) Option {
	return func(r *Response) { r.method = method }
}

// Response is a deferred view of one exchange.
type Response struct {
	pending Pending
	id      string
	method  string
	mode    ErrorMode
	log     *logger.Logger
	metrics *observability.Metrics

	group singleflight.Group

	mu        sync.Mutex
	policy    ErrorPolicy
	started   bool
	resolved  bool
	resp      *transport.Response
	err       error
	policyErr error

	closeOnce sync.Once
	closeErr  error
}

// New wraps p. Nothing is awaited until an accessor needs the outcome.
func New(p Pending, opts ...Option) *Response {
	r := &Response{
		pending: p,
		id:      uuid.NewString(),
		log:     logger.Get("deferhttp.deferred"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithFields(logger.Fields(logger.FieldRequestID, r.id))
	return r
}

// ID returns the response id.
func (r *Response) ID() string {
	return r.id
}

// Mode returns the error mode.
func (r *Response) Mode() ErrorMode {
	return r.mode
}

// Resolved reports whether the exchange outcome is known.
func (r *Response) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

// RaiseForStatus registers policy for failure statuses. A nil policy means
// PassThrough. It returns false, and changes nothing, when a policy is
// already registered or resolution has started.
func (r *Response) RaiseForStatus(policy ErrorPolicy) bool {
	if policy == nil {
		policy = PassThrough
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy != nil || r.started {
		r.log.Debug("error policy ignored", logger.Fields("started", r.started))
		return false
	}
	r.policy = policy
	return true
}

// Resolve awaits the exchange once and returns the memoized outcome on
// every call. Transport errors are returned unchanged. A caller whose ctx
// ends first gets ctx.Err(); the shared resolution keeps running.
func (r *Response) Resolve(ctx context.Context) (*transport.Response, error) {
	r.mu.Lock()
	if r.resolved {
		defer r.mu.Unlock()
		return r.resp, r.err
	}
	r.started = true
	r.mu.Unlock()

	ch := r.group.DoChan(resolveKey, func() (any, error) {
		return r.resolve(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		resp, _ := res.Val.(*transport.Response)
		return resp, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Response) resolve(ctx context.Context) (*transport.Response, error) {
	r.mu.Lock()
	if r.resolved {
		defer r.mu.Unlock()
		return r.resp, r.err
	}
	policy := r.policy
	r.mu.Unlock()
	if policy == nil && r.mode == Always {
		policy = PassThrough
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanResolve)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRequestID, r.id)
	observability.SetSpanAttribute(ctx, observability.AttrMethod, r.method)
	observability.SetSpanAttribute(ctx, observability.AttrErrorMode, r.mode.String())

	start := time.Now()
	resp, err := r.pending.Await(ctx)
	elapsed := time.Since(start)

	var policyErr error
	if err != nil {
		observability.SetSpanError(ctx, err)
		r.metrics.RecordResolve(ctx, r.method, 0, elapsed)
		r.metrics.RecordError(ctx, "transport", "deferred")
		r.log.Debug("resolution failed", logger.MergeWithDuration(logger.ErrorFields("resolve", err), elapsed))
	} else {
		observability.SetSpanAttribute(ctx, observability.AttrStatusCode, resp.Status())
		r.metrics.RecordResolve(ctx, r.method, resp.Status(), elapsed)
		r.log.Debug("resolved", logger.MergeWithDuration(logger.Fields(
			logger.FieldMethod, r.method,
			logger.FieldStatus, resp.Status(),
		), elapsed))
		policyErr = r.applyPolicy(ctx, policy, resp)
	}

	r.mu.Lock()
	r.resp, r.err, r.policyErr, r.resolved = resp, err, policyErr, true
	r.mu.Unlock()
	return resp, err
}

// applyPolicy runs policy when the response's own status check trips.
func (r *Response) applyPolicy(ctx context.Context, policy ErrorPolicy, resp *transport.Response) error {
	if policy == nil {
		return nil
	}
	failure := resp.RaiseForStatus()
	if failure == nil {
		return nil
	}
	err := policy(ctx, failure, resp)
	r.metrics.RecordPolicy(ctx, err != nil)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	r.log.Debug("error policy applied", logger.Fields(
		logger.FieldStatus, resp.Status(),
		"raised", err != nil,
	))
	return err
}

// settle resolves and reports the policy outcome, for body accessors.
func (r *Response) settle(ctx context.Context) (*transport.Response, error) {
	resp, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policyErr != nil {
		return nil, r.policyErr
	}
	return resp, nil
}

// Text returns the decoded body.
func (r *Response) Text(ctx context.Context) (string, error) {
	resp, err := r.settle(ctx)
	if err != nil {
		return "", err
	}
	return resp.Text()
}

// JSON decodes the body into v.
func (r *Response) JSON(ctx context.Context, v any) error {
	resp, err := r.settle(ctx)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

// Content returns the raw body bytes.
func (r *Response) Content(ctx context.Context) ([]byte, error) {
	resp, err := r.settle(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Read()
}

// Raw returns the resolved transport response.
func (r *Response) Raw(ctx context.Context) (*transport.Response, error) {
	return r.settle(ctx)
}

// Status returns a comparator over the eventual status code.
func (r *Response) Status() StatusCode {
	return StatusCode{r: r}
}

// Close releases the pending exchange without forcing resolution, or the
// resolved response when resolution already happened.
func (r *Response) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.pending.Close()
		r.log.Debug("closed", logger.Fields("resolved", r.Resolved()))
	})
	return r.closeErr
}
