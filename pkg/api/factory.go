// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// NewServerFactory creates a new server factory
func NewServerFactory(logger *slog.Logger, metrics *Metrics) ServerFactory {
	return &DefaultServerFactory{Logger: logger, Metrics: metrics}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{logger: f.Logger, metrics: f.Metrics}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger  *slog.Logger
	metrics *Metrics
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, db RecordDB, config ServerConfig) error {
	metrics := s.metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return StartServer(ctx, NewServer(db, config, metrics, s.logger))
}
