// Package scheduler runs periodic maintenance jobs on gocron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// Job is one unit of periodic work. The context is cancelled on Shutdown.
type Job func(ctx context.Context) error

type Scheduler struct {
	s      gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	logger *logger.Logger
}

func New(log *logger.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, ctx: ctx, cancel: cancel, logger: log.Named("Scheduler")}, nil
}

// Every registers job to run each interval. A run that is still in progress when the
// next tick arrives causes that tick to be skipped.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		s.logger.Info("Job disabled", zap.String("job", name))
		return nil
	}
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started := time.Now()
			if err := job(s.ctx); err != nil {
				s.logger.Error("Job failed", zap.String("job", name), zap.Error(err))
				return
			}
			s.logger.Debug("Job finished", zap.String("job", name), zap.Duration("duration", time.Since(started)))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}
	s.logger.Info("Job registered", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.s.Shutdown()
}
