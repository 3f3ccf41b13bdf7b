package preview

import (
	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// startScheduler registers the periodic rebuild. It returns nil when no
// interval is configured.
func (s *Server) startScheduler() (gocron.Scheduler, error) {
	if s.opts.RebuildInterval <= 0 {
		return nil, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create scheduler").Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.opts.RebuildInterval),
		gocron.NewTask(s.requestRebuild, "scheduled"),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "schedule periodic rebuild").
			WithContext("interval", s.opts.RebuildInterval.String()).
			Build()
	}
	s.logger.Info("Scheduled periodic rebuild", logfields.DurationMS(float64(s.opts.RebuildInterval.Milliseconds())))
	sched.Start()
	return sched, nil
}
