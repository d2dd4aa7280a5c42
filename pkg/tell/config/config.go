// Package config builds the immutable SDK configuration.
//
// A Config is produced once by a Builder (or one of the presets) and then
// moved into the client; Build is the only construction path that can fail,
// and only on a malformed API key.
package config

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tell-rs/tell-go/pkg/tell/errs"
	"github.com/tell-rs/tell-go/pkg/tell/validate"
)

// Production preset defaults.
const (
	DefaultEndpoint       = "collect.tell.rs:50000"
	DefaultBatchSize      = 100
	DefaultFlushInterval  = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultCloseTimeout   = 5 * time.Second
	DefaultNetworkTimeout = 30 * time.Second

	// DefaultService is stamped on the wire when no service name is set.
	DefaultService = "app"
)

// Development preset overrides.
const (
	DevEndpoint      = "localhost:50000"
	DevBatchSize     = 10
	DevFlushInterval = 2 * time.Second
)

// Config is the immutable SDK configuration. Build it with New or a preset;
// the zero value is not usable.
type Config struct {
	APIKey         [16]byte
	Service        string
	Endpoint       string
	BatchSize      int
	FlushInterval  time.Duration
	MaxRetries     int
	CloseTimeout   time.Duration
	NetworkTimeout time.Duration
	OnError        errs.Callback
	Logger         zerolog.Logger
}

// Builder assembles a Config with chainable setters.
type Builder struct {
	apiKey string
	cfg    Config
}

// New starts a builder seeded with the production defaults.
func New(apiKey string) *Builder {
	return &Builder{
		apiKey: apiKey,
		cfg: Config{
			Endpoint:       DefaultEndpoint,
			BatchSize:      DefaultBatchSize,
			FlushInterval:  DefaultFlushInterval,
			MaxRetries:     DefaultMaxRetries,
			CloseTimeout:   DefaultCloseTimeout,
			NetworkTimeout: DefaultNetworkTimeout,
			Logger:         zerolog.Nop(),
		},
	}
}

// Service sets the service name stamped on every event envelope.
func (b *Builder) Service(service string) *Builder {
	b.cfg.Service = service
	return b
}

// Endpoint sets the collector host:port.
func (b *Builder) Endpoint(endpoint string) *Builder {
	b.cfg.Endpoint = endpoint
	return b
}

// BatchSize sets how many records trigger a size-based flush.
func (b *Builder) BatchSize(n int) *Builder {
	b.cfg.BatchSize = n
	return b
}

// FlushInterval sets the time-based flush period.
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.FlushInterval = d
	return b
}

// MaxRetries sets how many resend attempts a failed batch gets. Zero
// disables the retry pool.
func (b *Builder) MaxRetries(n int) *Builder {
	b.cfg.MaxRetries = n
	return b
}

// CloseTimeout bounds how long Flush and Close wait for the worker.
func (b *Builder) CloseTimeout(d time.Duration) *Builder {
	b.cfg.CloseTimeout = d
	return b
}

// NetworkTimeout bounds transport connects and sends.
func (b *Builder) NetworkTimeout(d time.Duration) *Builder {
	b.cfg.NetworkTimeout = d
	return b
}

// OnError sets the asynchronous error callback. It may be invoked
// concurrently from worker and retry goroutines.
func (b *Builder) OnError(cb errs.Callback) *Builder {
	b.cfg.OnError = cb
	return b
}

// Logger sets the diagnostic logger. Defaults to a no-op logger.
func (b *Builder) Logger(l zerolog.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Build decodes the API key and returns the finished Config. Fails only on
// a malformed key.
func (b *Builder) Build() (Config, error) {
	key, err := validate.DecodeAPIKey(b.apiKey)
	if err != nil {
		return Config{}, err
	}
	cfg := b.cfg
	cfg.APIKey = key
	return cfg, nil
}

// Production returns the production preset: collect.tell.rs:50000, batches
// of 100, 10 s flush interval.
func Production(apiKey string) (Config, error) {
	return New(apiKey).Build()
}

// Development returns the development preset: localhost:50000, batches of
// 10, 2 s flush interval.
func Development(apiKey string) (Config, error) {
	return New(apiKey).
		Endpoint(DevEndpoint).
		BatchSize(DevBatchSize).
		FlushInterval(DevFlushInterval).
		Build()
}
