package batch

import "time"

// Config carries the batching thresholds, loadable with config.Load.
type Config struct {
	MaxBatchSize  int           `env:"BATCH_MAX_SIZE" envDefault:"50"`
	MaxWait       time.Duration `env:"BATCH_MAX_WAIT" envDefault:"30s"`
	DigestMaxSize int           `env:"BATCH_DIGEST_MAX_SIZE" envDefault:"10"`
	DigestWindow  time.Duration `env:"BATCH_DIGEST_WINDOW" envDefault:"15m"`
}

// WithConfig applies environment-loaded thresholds. Zero or negative
// values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(b *Batcher) {
		WithMaxBatchSize(cfg.MaxBatchSize)(b)
		WithMaxWait(cfg.MaxWait)(b)
		WithDigestMaxSize(cfg.DigestMaxSize)(b)
		WithDigestWindow(cfg.DigestWindow)(b)
	}
}
