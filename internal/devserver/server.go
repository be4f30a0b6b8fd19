// Package devserver serves compiled artifacts over HTTP, recompiles on
// source changes and tells connected browsers to reload.
//
// A Server moves between compiling and serving: every accepted change runs a
// full compile pass on a single rebuild worker and, on success, atomically
// swaps the served ArtifactMap. A pass that fails as a whole keeps the
// previous map in place.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/logfields"
	"git.home.luguber.info/inful/pub/internal/metrics"
	"git.home.luguber.info/inful/pub/internal/server/middleware"
)

// BuildObserver is told about every finished compile pass.
type BuildObserver func(ctx context.Context, summary compiler.Summary)

// Options configures a Server.
type Options struct {
	// Root is the source directory.
	Root string
	// ConfigPath is watched; a change calls Reload. Empty disables.
	ConfigPath string
	// Addr is the listen address, host:port.
	Addr string
	// LiveReload enables the reload channel and script injection.
	LiveReload bool
	// Debounce coalesces bursts of file events into one pass.
	Debounce time.Duration
	// PollInterval, when positive, also rebuilds on a fixed schedule.
	PollInterval time.Duration

	// Compile holds the options for every pass.
	Compile compiler.Options
	// Reload re-reads configuration after a config file change.
	Reload func() (compiler.Options, error)
	// Revision, when set, refreshes Compile.Revision before each pass.
	Revision func() string
	// Observers are notified after each pass.
	Observers []BuildObserver

	// Registry, when set, is served at metrics.Path.
	Registry *prom.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Server is a development server instance. It owns its watcher, live-reload
// hub and HTTP listener and closes them in Shutdown.
type Server struct {
	opts     Options
	log      *slog.Logger
	recorder metrics.Recorder

	store     *Store
	hub       *Hub
	seen      *SeenSet
	watcher   *Watcher
	rebuilder *Rebuilder
	poller    *poller
	httpSrv   *http.Server
	listener  net.Listener

	mu          sync.Mutex
	compileOpts compiler.Options

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a Server. Nothing runs until Start.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source root").Build()
	}
	opts.Root = root
	if opts.ConfigPath != "" {
		if opts.ConfigPath, err = filepath.Abs(opts.ConfigPath); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve config path").Build()
		}
	}

	s := &Server{
		opts:     opts,
		log:      opts.Logger,
		recorder: metrics.OrNoop(opts.Recorder),
		store:    NewStore(),
		seen:     NewSeenSet(),
	}
	s.hub = NewHub(s.log, s.recorder)
	s.rebuilder = newRebuilder(opts.Debounce, s.pass)
	s.setCompileOptions(opts.Compile)
	return s, nil
}

func (s *Server) setCompileOptions(co compiler.Options) {
	co.Logger = s.log
	co.Recorder = s.recorder
	if s.opts.ConfigPath != "" {
		co.IgnoreFiles = append(slices.Clone(co.IgnoreFiles), s.opts.ConfigPath)
	}
	s.mu.Lock()
	s.compileOpts = co
	s.mu.Unlock()
}

func (s *Server) compileOptions() compiler.Options {
	s.mu.Lock()
	co := s.compileOpts
	s.mu.Unlock()
	if s.opts.Revision != nil {
		co.Revision = s.opts.Revision()
	}
	return co
}

// Store returns the artifact store being served.
func (s *Server) Store() *Store { return s.store }

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the bound listen address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

// Handler returns the HTTP handler: artifacts, the live-reload endpoint and,
// when configured, metrics, wrapped in logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	script := ""
	if s.opts.LiveReload {
		mux.Handle(LiveReloadPath, s.hub)
		script = LiveReloadScript
	}
	if s.opts.Registry != nil {
		mux.Handle(metrics.Path, metrics.HTTPHandler(s.opts.Registry))
	}
	mux.Handle("/", NewHandler(s.store, script))
	return middleware.Chain(s.log, ferrors.NewHTTPErrorAdapter(s.log), s.recorder)(mux)
}

// Start compiles the site once, starts watching and begins serving. It
// returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	watcher, err := NewWatcher(WatcherOptions{
		Root:       s.opts.Root,
		ConfigPath: s.opts.ConfigPath,
		Exclude:    s.compileOptions().Exclude,
		Logger:     s.log,
	})
	if err != nil {
		cancel()
		return err
	}
	files, err := watcher.Seed()
	if err != nil {
		_ = watcher.Close()
		cancel()
		return err
	}
	for _, f := range files {
		s.seen.Add(f)
	}
	s.watcher = watcher

	s.pass(runCtx, reloadNever, compiler.TriggerServe)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		_ = watcher.Close()
		cancel()
		return ferrors.NetworkError("listen").WithContext("addr", s.opts.Addr).WithCause(err).Build()
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", logfields.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		s.rebuilder.Run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.watcher.Run(runCtx, s.handleEvent)
	}()

	if s.opts.PollInterval > 0 {
		p, err := newPoller(s.opts.PollInterval, s.rebuilder, s.log)
		if err != nil {
			s.log.Warn("Polling disabled", logfields.Error(err))
		} else {
			s.poller = p
			p.Start()
		}
	}

	s.log.Info("Dev server listening", logfields.Addr(s.Addr()), slog.Bool("live_reload", s.opts.LiveReload))
	return nil
}

// handleEvent decides whether a change needs a pass and whether browsers
// should reload afterwards. Every event triggers a pass. Changes to files seen
// before reload browsers; so does an add of a seen path, which is how an
// atomic save (write a temp file, rename it over the original) arrives.
func (s *Server) handleEvent(ev WatchEvent) {
	if ev.Config {
		s.reloadConfig()
		s.rebuilder.Request(reloadAlways, compiler.TriggerWatch)
		return
	}

	mode := reloadNever
	switch ev.Kind {
	case EventAdd, EventChange:
		if !s.seen.Add(ev.Path) {
			mode = reloadAlways
		}
	case EventUnlink:
		if s.seen.Remove(ev.Path) {
			mode = reloadAlways
		}
	}
	s.rebuilder.Request(mode, compiler.TriggerWatch)
}

func (s *Server) reloadConfig() {
	if s.opts.Reload == nil {
		return
	}
	co, err := s.opts.Reload()
	if err != nil {
		s.log.Error("Config reload failed; keeping previous configuration", logfields.Error(err))
		return
	}
	s.setCompileOptions(co)
	s.log.Info("Config reloaded", logfields.Path(s.opts.ConfigPath))
}

// pass runs one compile and publishes the result. Cancelling ctx does not
// interrupt the compile.
func (s *Server) pass(ctx context.Context, mode reloadMode, trigger string) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	res, err := compiler.Compile(ctx, s.opts.Root, "", s.compileOptions())
	summary := compiler.Summarize(trigger, started, res, err)
	defer s.notify(ctx, summary)

	if err != nil {
		s.log.Error("Compile failed; serving previous artifacts", logfields.Error(err))
		return
	}

	prev := s.store.Swap(res.Artifacts)
	if !s.opts.LiveReload {
		return
	}
	if mode == reloadAlways || (mode == reloadIfChanged && prev.Digest() != res.Artifacts.Digest()) {
		s.hub.Broadcast(ReloadMessage)
	}
}

func (s *Server) notify(ctx context.Context, summary compiler.Summary) {
	for _, o := range s.opts.Observers {
		o(ctx, summary)
	}
}

// Shutdown stops the poller and watcher, closes the live-reload channel and
// then the HTTP listener. An in-flight compile pass is allowed to finish; no
// new pass starts afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.shutdownOnce.Do(func() {
		if s.poller != nil {
			if err := s.poller.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.hub.Shutdown()
		if s.httpSrv != nil {
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
		s.log.Info("Dev server stopped")
	})
	return errors.Join(errs...)
}
