package preview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// pollScheduler periodically requests rebuilds. It covers mounts where file
// system notifications are not delivered (network shares, some container volumes).
type pollScheduler struct {
	scheduler gocron.Scheduler
}

func newPollScheduler(interval time.Duration, trigger func()) (*pollScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(trigger),
		gocron.WithName("preview-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	return &pollScheduler{scheduler: s}, nil
}

func (p *pollScheduler) Start() {
	slog.Debug("Starting preview poll scheduler")
	p.scheduler.Start()
}

func (p *pollScheduler) Stop() {
	if err := p.scheduler.Shutdown(); err != nil {
		slog.Warn("Failed to stop preview poll scheduler", "error", err)
	}
}
