package service

import (
	"github.com/okian/kabaddi/internal/adapters/repository"
	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the pipeline configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore replaces the output store built from the configuration.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithCommand names the command recorded in the run manifest.
func WithCommand(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.command = name
		}
	}
}
