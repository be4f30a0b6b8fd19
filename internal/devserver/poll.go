package devserver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pub/internal/compiler"
)

// poller periodically requests a full rebuild for filesystems where change
// notifications are unreliable. Browsers reload only when the result differs.
type poller struct {
	scheduler gocron.Scheduler
}

func newPoller(interval time.Duration, rb *Rebuilder, logger *slog.Logger) (*poller, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { rb.Request(reloadIfChanged, compiler.TriggerPoll) }),
		gocron.WithName("poll-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	logger.Info("Polling source tree", slog.Duration("interval", interval))
	return &poller{scheduler: s}, nil
}

func (p *poller) Start() { p.scheduler.Start() }

func (p *poller) Stop() error { return p.scheduler.Shutdown() }
