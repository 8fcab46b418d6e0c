package service

import (
	"github.com/okian/ergofit/internal/domain/scoring"
	"github.com/okian/ergofit/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds how many rows are queued for the pool at once.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize sets the number of solved results kept for reuse.
// Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithSweepStep sets the crank sweep step in degrees.
func WithSweepStep(deg float64) Option {
	return func(s *Service) {
		if deg > 0 && deg <= 360 {
			s.sweepStepDeg = deg
		}
	}
}

// WithTable replaces the discipline reference table.
func WithTable(t *scoring.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithDiscipline sets the discipline used when a request names none.
func WithDiscipline(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.discipline = name
		}
	}
}

// WithElbowAngle sets the elbow angle in degrees used when a request gives none.
func WithElbowAngle(deg float64) Option {
	return func(s *Service) {
		if deg > 0 && deg <= 180 {
			s.elbowDeg = deg
		}
	}
}
