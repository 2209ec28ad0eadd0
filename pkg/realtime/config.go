package realtime

import "time"

// Config carries the registry tunables, loadable with config.Load.
type Config struct {
	MaxConnectionsPerUser int           `env:"REALTIME_MAX_CONNS_PER_USER" envDefault:"8"`
	PresenceTTL           time.Duration `env:"REALTIME_PRESENCE_TTL" envDefault:"5m"`
}

// WithConfig applies environment-loaded tunables. Non-positive values
// keep the defaults.
func WithConfig(cfg Config) RegistryOption {
	return func(r *Registry) {
		WithMaxConnectionsPerUser(cfg.MaxConnectionsPerUser)(r)
		if cfg.PresenceTTL > 0 {
			r.presenceTTL = cfg.PresenceTTL
		}
	}
}
