package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/deferhttp/capability"
	"github.com/kbukum/deferhttp/deferred"
	apperrors "github.com/kbukum/deferhttp/errors"
	"github.com/kbukum/deferhttp/logger"
	"github.com/kbukum/deferhttp/observability"
	"github.com/kbukum/deferhttp/transport"
)

// Option names accepted by the transport, computed once from its real
// signatures.
var (
	clientDescriptor  = capability.Of(transport.New)
	requestDescriptor = capability.Of((*transport.Client).Request)
)

// Option configures a Session.
type Option func(*settings)

type settings struct {
	log     *logger.Logger
	metrics *observability.Metrics
	mode    deferred.ErrorMode
	prefix  string
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records dispatches and resolutions on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithErrorMode sets the error mode of every response. Defaults to
// deferred.OptIn.
func WithErrorMode(mode deferred.ErrorMode) Option {
	return func(s *settings) { s.mode = mode }
}

// WithTransportPrefix sets the prefix that forces a key to the transport.
// An empty prefix routes by introspection only.
func WithTransportPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// Session issues requests through an owned transport client and returns
// deferred responses.
type Session struct {
	client  *transport.Client
	base    Base
	mode    deferred.ErrorMode
	log     *logger.Logger
	metrics *observability.Metrics

	closeOnce sync.Once
	closeErr  error
}

// New splits cfg between the transport and the base capability, builds the
// transport client from its half and then calls factory with the rest. A
// nil factory is NoBase.
func New(cfg *capability.Options, factory BaseFactory, opts ...Option) (*Session, error) {
	s := settings{
		log:    logger.Get("deferhttp.session"),
		prefix: capability.DefaultPrefix,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if factory == nil {
		factory = NoBase
	}

	router := capability.Router{Descriptor: clientDescriptor, Prefix: s.prefix}
	accepted, rejected := router.Split(cfg)
	s.log.Debug("configuration split", logger.Fields(
		"transport", accepted.Keys(),
		"base", rejected.Keys(),
	))

	var clientOpts transport.ClientOptions
	if err := capability.Decode(accepted, &clientOpts); err != nil {
		return nil, apperrors.InvalidArgument(accepted.Keys()...).WithCause(err)
	}
	client, err := transport.New(clientOpts)
	if err != nil {
		return nil, err
	}

	base, err := factory(rejected)
	if err != nil {
		if cerr := client.Close(context.Background()); cerr != nil {
			s.log.Warn("closing transport after base failure", logger.ErrorFields("close", cerr))
		}
		return nil, err
	}

	return &Session{
		client:  client,
		base:    base,
		mode:    s.mode,
		log:     s.log.WithFields(logger.Fields("client", client.Name())),
		metrics: s.metrics,
	}, nil
}

// Request checks opts against the options the transport's request method
// accepts and dispatches one exchange. Unknown keys fail with an
// INVALID_ARGUMENT error naming them, before anything is sent. A nil opts
// is empty.
func (s *Session) Request(ctx context.Context, method, url string, opts *capability.Options) (*deferred.Response, error) {
	accepted, rejected := capability.Reconcile(opts, requestDescriptor)
	if rejected.Len() > 0 {
		err := apperrors.InvalidArgument(rejected.Keys()...)
		s.log.Debug("request rejected", logger.Fields(logger.FieldKeys, rejected.Keys()))
		s.metrics.RecordError(ctx, string(apperrors.ErrCodeInvalidArgument), "session")
		return nil, err
	}

	var reqOpts transport.RequestOptions
	if err := capability.Decode(accepted, &reqOpts); err != nil {
		return nil, apperrors.InvalidArgument(accepted.Keys()...).WithCause(err)
	}

	method = strings.ToUpper(method)
	pending, err := s.client.Request(ctx, method, url, reqOpts)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDispatch(ctx, method)

	id := uuid.NewString()
	s.log.Debug("request dispatched", logger.Fields(
		logger.FieldRequestID, id,
		logger.FieldMethod, method,
		logger.FieldURL, url,
	))
	return deferred.New(pending,
		deferred.WithID(id),
		deferred.WithMethod(method),
		deferred.WithMode(s.mode),
		deferred.WithLogger(s.log),
		deferred.WithMetrics(s.metrics),
	), nil
}

// Get issues a GET request.
func (s *Session) Get(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodGet, url, opts)
}

// Options issues an OPTIONS request.
func (s *Session) Options(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodOptions, url, opts)
}

// Head issues a HEAD request.
func (s *Session) Head(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodHead, url, opts)
}

// Post issues a POST request.
func (s *Session) Post(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodPost, url, opts)
}

// Put issues a PUT request.
func (s *Session) Put(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodPut, url, opts)
}

// Patch issues a PATCH request.
func (s *Session) Patch(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodPatch, url, opts)
}

// Delete issues a DELETE request.
func (s *Session) Delete(ctx context.Context, url string, opts *capability.Options) (*deferred.Response, error) {
	return s.Request(ctx, http.MethodDelete, url, opts)
}

// Close closes the transport client, then the base. Both errors are
// reported. Later calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		terr := s.client.Close(ctx)
		berr := s.base.Close(ctx)
		s.closeErr = errors.Join(terr, berr)
		s.log.Debug("session closed", logger.Fields("ok", s.closeErr == nil))
	})
	return s.closeErr
}

// Client returns the transport client.
func (s *Session) Client() *transport.Client {
	return s.client
}

// Base returns the base capability.
func (s *Session) Base() Base {
	return s.base
}

// ErrorMode returns the error mode given to every response.
func (s *Session) ErrorMode() deferred.ErrorMode {
	return s.mode
}
