package devserver

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/logfields"
)

// EventKind is the kind of a source tree change.
type EventKind int

const (
	EventAdd EventKind = iota + 1
	EventChange
	EventUnlink
)

func (k EventKind) String() string {
	switch k {
	case EventAdd:
		return "add"
	case EventChange:
		return "change"
	case EventUnlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// WatchEvent is a change to a file under the source root, or to the config file.
type WatchEvent struct {
	Kind   EventKind
	Path   string
	Config bool
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Root       string
	ConfigPath string
	// Exclude lists directory names never watched.
	Exclude []string
	Logger  *slog.Logger
}

// Watcher turns fsnotify events under a source root into WatchEvents.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	config  string
	exclude map[string]bool
	log     *slog.Logger
}

// NewWatcher creates a Watcher. Nothing is watched until Seed is called.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create file watcher").Build()
	}
	w := &Watcher{
		fs:      fw,
		root:    filepath.Clean(opts.Root),
		exclude: make(map[string]bool, len(opts.Exclude)),
		log:     opts.Logger,
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	for _, name := range opts.Exclude {
		w.exclude[name] = true
	}
	if opts.ConfigPath != "" {
		w.config = filepath.Clean(opts.ConfigPath)
	}
	return w, nil
}

// Seed watches every directory under the root, plus the config file's
// directory, and returns the files that already exist.
func (w *Watcher) Seed() ([]string, error) {
	files, err := w.addTree(w.root)
	if err != nil {
		return nil, err
	}
	if w.config != "" && !w.underRoot(w.config) {
		if err := w.fs.Add(filepath.Dir(w.config)); err != nil {
			w.log.Warn("Cannot watch config directory", logfields.Path(w.config), logfields.Error(err))
		}
	}
	return files, nil
}

func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && w.exclude[d.Name()] {
				return filepath.SkipDir
			}
			if err := w.fs.Add(path); err != nil {
				w.log.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
			return nil
		}
		if !shouldIgnoreEvent(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch source tree").
			WithContext("path", dir).
			Build()
	}
	return files, nil
}

// Run delivers events to handle until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, handle func(WatchEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			for _, we := range w.translate(ev) {
				w.log.Debug("File change detected", logfields.Path(we.Path), logfields.Op(we.Kind.String()))
				handle(we)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// translate maps one fsnotify event to zero or more WatchEvents. A created
// directory is watched and reported as an add for each file inside it.
func (w *Watcher) translate(ev fsnotify.Event) []WatchEvent {
	path := filepath.Clean(ev.Name)
	kind, ok := kindOf(ev.Op)
	if !ok {
		return nil
	}
	if path == w.config {
		return []WatchEvent{{Kind: kind, Path: path, Config: true}}
	}
	if !w.underRoot(path) || w.excluded(path) || shouldIgnoreEvent(path) {
		return nil
	}

	if kind == EventAdd {
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			files, err := w.addTree(path)
			if err != nil {
				w.log.Warn("Cannot watch new directory", logfields.Path(path), logfields.Error(err))
				return nil
			}
			events := make([]WatchEvent, 0, len(files))
			for _, f := range files {
				events = append(events, WatchEvent{Kind: EventAdd, Path: f})
			}
			return events
		}
	}
	return []WatchEvent{{Kind: kind, Path: path}}
}

func kindOf(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventUnlink, true
	case op.Has(fsnotify.Create):
		return EventAdd, true
	case op.Has(fsnotify.Write):
		return EventChange, true
	default:
		return 0, false
	}
}

func (w *Watcher) underRoot(path string) bool {
	return path == w.root || strings.HasPrefix(path, w.root+string(filepath.Separator))
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.exclude[part] {
			return true
		}
	}
	return false
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// shouldIgnoreEvent returns true for paths that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// hidden files, including .#lock files
	if strings.HasPrefix(base, ".") {
		return true
	}

	// editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db" || base == "4913"
}
