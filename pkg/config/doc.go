// Package config loads environment-based configuration structs with caching
// so each configuration type is parsed only once per process.
//
// Configuration structs declare their environment bindings with `env` tags:
//
//	type DeliveryConfig struct {
//		MaxRetries   int           `env:"DELIVERY_MAX_RETRIES" envDefault:"3"`
//		IdempotencyTTL time.Duration `env:"DELIVERY_IDEMPOTENCY_TTL" envDefault:"30s"`
//	}
//
//	var cfg DeliveryConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
//
// The first Load call also attempts to read a .env file from the working
// directory (missing files are not an error). Explicit env files can be
// loaded with LoadEnv; later files take precedence over earlier ones.
//
// ResetCache exists for tests that need to re-parse a type after mutating
// the environment.
package config
