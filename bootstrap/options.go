package bootstrap

import (
	"time"

	"github.com/kbukum/authkit/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option adjusts how NewApp builds the App. It is independent of the config
// type so the same options serve every App[C].
type Option func(*settings)

type settings struct {
	log             *logger.Logger
	gracefulTimeout time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{gracefulTimeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the Logging block. The supplied
// logger is not installed as the process-wide one.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds how long shutdown waits for components to stop.
// Non-positive values keep the default.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.gracefulTimeout = d
		}
	}
}
