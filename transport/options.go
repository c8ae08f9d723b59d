package transport

import (
	"net/http"
	"time"

	"github.com/kbukum/deferhttp/resilience"
	"github.com/kbukum/deferhttp/security"
	"github.com/kbukum/deferhttp/validation"
	"github.com/kbukum/deferhttp/version"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultLimit        = 100
	defaultMaxRedirects = 10
)

// HTTP protocol versions accepted by ClientOptions.Version.
const (
	HTTP10 = "1.0"
	HTTP11 = "1.1"
	HTTP2  = "2"
)

// ClientOptions are the parameters of New. Their mapstructure names are
// the option keys a session routes to the transport.
type ClientOptions struct {
	// Name identifies the client in logs and circuit breaker events.
	Name string `mapstructure:"name"`
	// BaseURL is prepended to relative request URLs.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// Timeout bounds a whole exchange, body included. Defaults to 30s.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// Headers are sent with every request.
	Headers map[string]string `mapstructure:"headers"`
	// Auth is applied to every request unless the request overrides it.
	Auth *AuthConfig `mapstructure:"auth"`
	// TLS configures certificate verification and client certificates.
	TLS *security.TLSConfig `mapstructure:"tls"`
	// Version is the HTTP protocol version: "1.0", "1.1" or "2".
	// Empty negotiates HTTP/2 over TLS and falls back to HTTP/1.1.
	Version string `mapstructure:"version" validate:"omitempty,oneof=1 1.0 1.1 2 2.0"`
	// CookieJar stores cookies across requests. Defaults to an in-memory
	// jar using the public suffix list.
	CookieJar http.CookieJar `mapstructure:"cookie_jar"`
	// UserAgent defaults to deferhttp/<version>.
	UserAgent string `mapstructure:"user_agent"`
	// RaiseForStatus makes every exchange with status >= 400 fail.
	RaiseForStatus bool `mapstructure:"raise_for_status"`
	// TrustEnv honours HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
	TrustEnv bool `mapstructure:"trust_env"`
	// Limit caps concurrent exchanges. Defaults to 100; excess requests wait.
	Limit int `mapstructure:"limit" validate:"gte=0"`
	// LimitPerHost caps connections per host. 0 means unlimited.
	LimitPerHost int `mapstructure:"limit_per_host" validate:"gte=0"`

	Retry          *resilience.RetryConfig          `mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `mapstructure:"rate_limiter"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (o *ClientOptions) ApplyDefaults() {
	if o.Name == "" {
		o.Name = "deferhttp"
	}
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.Limit == 0 {
		o.Limit = defaultLimit
	}
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent()
	}
	switch o.Version {
	case "1":
		o.Version = HTTP10
	case "2.0":
		o.Version = HTTP2
	}
}

// Validate checks that the options are consistent.
func (o *ClientOptions) Validate() error {
	if err := validation.Validate(o); err != nil {
		return err
	}
	return o.TLS.Validate()
}

// RequestOptions are the per-call parameters of Client.Request.
type RequestOptions struct {
	// Params are added to the URL query.
	Params map[string]string `mapstructure:"params"`
	// Data is the raw body: []byte, string, io.Reader, url.Values or a
	// map, the last two form-encoded.
	Data any `mapstructure:"data"`
	// JSON is encoded as the body with Content-Type application/json.
	JSON    any               `mapstructure:"json"`
	Headers map[string]string `mapstructure:"headers"`
	Cookies map[string]string `mapstructure:"cookies"`
	// Auth overrides the client's auth.
	Auth *AuthConfig `mapstructure:"auth"`
	// Timeout overrides the client's timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// AllowRedirects defaults to true.
	AllowRedirects *bool `mapstructure:"allow_redirects"`
	// MaxRedirects defaults to 10.
	MaxRedirects int `mapstructure:"max_redirects" validate:"gte=0"`
	// RaiseForStatus overrides the client's flag.
	RaiseForStatus *bool `mapstructure:"raise_for_status"`
	// Proxy is a proxy URL for this request only.
	Proxy string `mapstructure:"proxy" validate:"omitempty,url"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (o *RequestOptions) ApplyDefaults() {
	if o.AllowRedirects == nil {
		allow := true
		o.AllowRedirects = &allow
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = defaultMaxRedirects
	}
}

// Validate checks that the options are consistent.
func (o *RequestOptions) Validate() error {
	if o.Data != nil && o.JSON != nil {
		return NewValidationError("data and json parameters can not be used at the same time")
	}
	return validation.Validate(o)
}
