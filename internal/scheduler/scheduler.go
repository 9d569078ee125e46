package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler drives the periodic escalation re-scan. Ticks that fire while
// the previous sweep is still running are skipped, not queued: the next
// tick picks up whatever the slow sweep left behind.
type Scheduler struct {
	cron     *cron.Cron
	job      Job
	interval time.Duration
	logger   *zap.Logger
}

// New builds a scheduler around the given job. Intervals under one
// second are raised to one second, the finest granularity cron's
// @every spec supports.
func New(job Job, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	} else if interval < time.Second {
		interval = time.Second
	}
	cronLogger := &zapCronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		job:      job,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the sweep job and begins ticking.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.job(context.Background())
	}); err != nil {
		return fmt.Errorf("registering sweep job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("escalation scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the ticker and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("escalation scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("escalation scheduler stop timed out with a sweep in flight")
	}
}

// zapCronLogger adapts zap to the cron logging interface.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, zap.Any("details", keysAndValues))
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
