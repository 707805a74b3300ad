package viewmodels

import (
	"time"

	"cloudcanvas/app/log"

	"go.uber.org/zap"
)

// Option configures a view model.
type Option func(*settings)

type settings struct {
	now func() time.Time
	log *zap.Logger
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func newSettings(logger *zap.Logger, opts []Option) settings {
	s := settings{now: time.Now, log: log.OrNop(logger)}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
