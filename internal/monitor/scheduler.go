// internal/monitor/scheduler.go
package monitor

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/bkaplan/brickwatch/internal/utils"
)

// Scheduler runs the monitor on a fixed interval. The first run fires
// immediately; cron handles the rest.
type Scheduler struct {
	runner        *Runner
	cron          *cron.Cron
	intervalHours int
	logger        utils.Logger
}

// NewScheduler builds a scheduler around the runner.
func NewScheduler(runner *Runner, intervalHours int, logger utils.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	if logger == nil {
		logger = utils.NewComponentLogger("scheduler")
	}
	return &Scheduler{
		runner:        runner,
		cron:          cron.New(),
		intervalHours: intervalHours,
		logger:        logger,
	}
}

// Start kicks off an immediate run and schedules the recurring ones.
// It returns after scheduling; Stop ends the recurrence.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %dh", s.intervalHours)
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.runner.RunAll(ctx); err != nil {
			s.logger.WithField("error", err.Error()).Error("scheduled run finished with errors")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule monitoring runs: %w", err)
	}

	s.logger.WithField("interval_hours", s.intervalHours).Info("scheduler started")
	go func() {
		if err := s.runner.RunAll(ctx); err != nil {
			s.logger.WithField("error", err.Error()).Error("initial run finished with errors")
		}
	}()
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
