package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pub/internal/compiler"
	"git.home.luguber.info/inful/pub/internal/config"
	"git.home.luguber.info/inful/pub/internal/devserver"
	"git.home.luguber.info/inful/pub/internal/git"
	"git.home.luguber.info/inful/pub/internal/metrics"
)

// shutdownTimeout bounds how long Shutdown waits for in-flight work.
const shutdownTimeout = 10 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Src          string `arg:"" optional:"" default:"." help:"Source directory" type:"existingdir"`
	Port         int    `help:"Port to run the dev server on (overrides config)"`
	Host         string `help:"Host to bind (overrides config)"`
	BaseURL      string `name:"base-url" help:"Base path prepended to relative asset URLs (overrides config)"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable live reload"`
}

func (s *ServeCmd) overrides() overrides {
	return overrides{Port: s.Port, Host: s.Host, BaseURL: s.BaseURL}
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := g.logger()
	cfg, err := root.loadConfig(s.overrides())
	if err != nil {
		return err
	}
	sinks, err := openSinks(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = sinks.Close() }()

	srv, err := devserver.New(s.serverOptions(g, root, cfg, sinks))
	if err != nil {
		return err
	}
	if err := srv.Start(sigctx); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Serving %s\n\n  Local: http://%s\n", s.Src, srv.Addr())

	<-sigctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func (s *ServeCmd) serverOptions(g *Global, root *CLI, cfg *config.Config, sinks *sinks) devserver.Options {
	opts := devserver.Options{
		Root:         s.Src,
		ConfigPath:   root.Config,
		Addr:         cfg.Addr(),
		LiveReload:   cfg.LiveReload && !s.NoLiveReload,
		Debounce:     cfg.Watch.Debounce,
		PollInterval: cfg.Watch.PollInterval,
		Compile:      cfg.CompileOptions(),
		Reload: func() (compiler.Options, error) {
			next, err := root.loadConfig(s.overrides())
			if err != nil {
				return compiler.Options{}, err
			}
			return next.CompileOptions(), nil
		},
		Revision: git.RevisionFunc(s.Src),
		Logger:   g.logger(),
	}
	for _, o := range sinks.observers() {
		opts.Observers = append(opts.Observers, o)
	}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		opts.Registry = reg
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
	}
	return opts
}
