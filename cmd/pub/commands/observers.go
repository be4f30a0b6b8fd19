package commands

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/pub/internal/compiler"
	"git.home.luguber.info/inful/pub/internal/config"
	"git.home.luguber.info/inful/pub/internal/history"
	"git.home.luguber.info/inful/pub/internal/logfields"
	"git.home.luguber.info/inful/pub/internal/notify"
)

// sinks are the optional consumers of build summaries: the history database
// and the event publisher.
type sinks struct {
	history   *history.Store
	publisher *notify.Publisher
	log       *slog.Logger
}

func openSinks(cfg *config.Config, logger *slog.Logger) (*sinks, error) {
	s := &sinks{log: logger}
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	pub, err := notify.Connect(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		logger.Warn("Build events disabled", logfields.Error(err))
	}
	s.publisher = pub
	return s, nil
}

// observers returns one callback per configured sink.
func (s *sinks) observers() []func(context.Context, compiler.Summary) {
	var out []func(context.Context, compiler.Summary)
	if s.history != nil {
		out = append(out, s.history.Observer(s.log))
	}
	if s.publisher != nil {
		out = append(out, s.publisher.Observer())
	}
	return out
}

func (s *sinks) observe(ctx context.Context, sum compiler.Summary) {
	for _, o := range s.observers() {
		o(ctx, sum)
	}
}

func (s *sinks) Close() error {
	var errs []error
	if s.history != nil {
		errs = append(errs, s.history.Close())
	}
	s.publisher.Close()
	return errors.Join(errs...)
}
