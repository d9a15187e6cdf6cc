package site

import (
	"time"

	"github.com/okian/teamsite/pkg/logger"
)

// Option configures a Site.
type Option func(*Site)

// WithTeamName sets the name shown in page titles and the header.
func WithTeamName(name string) Option {
	return func(s *Site) {
		if name != "" {
			s.teamName = name
		}
	}
}

// WithLogger sets the logger used for render failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to split past and upcoming events.
func WithClock(now func() time.Time) Option {
	return func(s *Site) {
		if now != nil {
			s.now = now
		}
	}
}
