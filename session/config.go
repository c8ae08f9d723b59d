package session

import (
	"github.com/kbukum/deferhttp/capability"
	"github.com/kbukum/deferhttp/deferred"
	"github.com/kbukum/deferhttp/validation"
)

// Config is the file-loadable form of a session. Options is the flat bag
// New splits between the transport and the base.
type Config struct {
	// Name is the transport client name unless Options sets one.
	Name string `yaml:"name" mapstructure:"name"`
	// ErrorMode is "opt_in" (default) or "always".
	ErrorMode string `yaml:"error_mode" mapstructure:"error_mode" validate:"omitempty,oneof=opt_in always"`
	// TransportPrefix forces keys to the transport. Defaults to "transport_".
	TransportPrefix string         `yaml:"transport_prefix" mapstructure:"transport_prefix"`
	Options         map[string]any `yaml:"options" mapstructure:"options"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "deferhttp"
	}
	if c.ErrorMode == "" {
		c.ErrorMode = deferred.OptIn.String()
	}
	if c.TransportPrefix == "" {
		c.TransportPrefix = capability.DefaultPrefix
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// NewFromConfig builds a session from cfg. opts are applied after the
// settings cfg implies.
func NewFromConfig(cfg Config, factory BaseFactory, opts ...Option) (*Session, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := deferred.ParseErrorMode(cfg.ErrorMode)
	if err != nil {
		return nil, err
	}

	bag := capability.FromMap(cfg.Options)
	if !bag.Has("name") && !bag.Has(cfg.TransportPrefix+"name") {
		bag.Set(cfg.TransportPrefix+"name", cfg.Name)
	}

	all := append([]Option{WithErrorMode(mode), WithTransportPrefix(cfg.TransportPrefix)}, opts...)
	return New(bag, factory, all...)
}
