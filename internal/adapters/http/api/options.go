package api

import "github.com/okian/teamsite/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithAdminToken sets the shared secret admin requests must present in the
// x-admin-token header.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
