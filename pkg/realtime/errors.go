package realtime

import "errors"

var (
	ErrRegistryClosed   = errors.New("realtime.errors.registry_closed")
	ErrConnectionClosed = errors.New("realtime.errors.connection_closed")
	ErrSlowConsumer     = errors.New("realtime.errors.slow_consumer")
)
