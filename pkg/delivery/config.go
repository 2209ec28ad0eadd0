package delivery

import "time"

// Config carries the coordinator tunables, loadable with config.Load.
type Config struct {
	RetryDelays    []time.Duration `env:"DELIVERY_RETRY_DELAYS" envSeparator:"," envDefault:"5m,10m,20m,40m,80m"`
	IdempotencyTTL time.Duration   `env:"DELIVERY_IDEMPOTENCY_TTL" envDefault:"10m"`
}

// WithConfig applies environment-loaded tunables. Empty or non-positive
// values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(c *Coordinator) {
		WithRetryDelays(cfg.RetryDelays)(c)
		WithIdempotencyTTL(cfg.IdempotencyTTL)(c)
	}
}
