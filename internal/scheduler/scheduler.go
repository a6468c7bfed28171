// Package scheduler triggers periodic suggestion rebuilds.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	"github.com/bluestone/imagetag/internal/usecase/suggestbuild"
)

// Runner runs one rebuild pass.
type Runner interface {
	Run(ctx context.Context) (suggestbuild.Report, error)
}

// Scheduler runs the builder on a fixed interval. Overlap with a manual
// rebuild is resolved by the builder itself: a busy run makes the tick a
// no-op.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

// New creates a rebuild scheduler.
func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Start blocks until the context is cancelled, running the builder every
// interval.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("rebuild scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rebuild scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, domain.ErrBuildInProgress):
		s.logger.Info("rebuild already in flight, skipping tick")
	case err != nil:
		s.logger.Error("scheduled rebuild failed", zap.Error(err))
	default:
		s.logger.Info("scheduled rebuild finished",
			zap.Int("updated", report.Updated),
			zap.Int("deleted", report.Deleted),
			zap.Strings("failed_letters", report.FailedLetters))
	}
}
