// Package compiler turns a source tree into an ArtifactMap.
//
// Compile walks the source root, runs every file through a transform.Registry
// and collects the results. Files are transformed concurrently and joined with
// all-settled semantics: a file that fails is logged and left out of the map,
// and every other file still compiles.
package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/layout"
	"git.home.luguber.info/inful/pub/internal/logfields"
	"git.home.luguber.info/inful/pub/internal/metrics"
	"git.home.luguber.info/inful/pub/internal/transform"
)

// DefaultExclude lists directory names never compiled.
var DefaultExclude = []string{"node_modules", ".git"}

// Options configures one compile pass.
type Options struct {
	// LayoutFile is the default layout name inside the source root.
	LayoutFile string
	// Exclude lists directory names skipped anywhere in the tree.
	Exclude []string
	// IgnoreFiles lists absolute file paths never compiled, such as the
	// config file when it lives inside the source root.
	IgnoreFiles []string

	BaseURL         string
	JSXImportSource string
	Alias           map[string]string
	Revision        string
	DisableMinify   bool

	// Transformers override or extend the built-in transformers.
	Transformers map[string]transform.Transformer
	// Concurrency bounds the number of files transformed at once.
	Concurrency int

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

func (o Options) withDefaults() Options {
	if o.LayoutFile == "" {
		o.LayoutFile = layout.DefaultFile
	}
	if o.Exclude == nil {
		o.Exclude = DefaultExclude
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0) * 2
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Recorder = metrics.OrNoop(o.Recorder)
	return o
}

// Result is the outcome of a compile pass.
type Result struct {
	BuildID   string
	Artifacts ArtifactMap
	Failures  []*FileError
	StartedAt time.Time
	Duration  time.Duration
}

// Compile compiles every file under src. When dest is not empty each artifact
// gets a DistPath mirroring its source path under dest; nothing is written
// until Write is called.
//
// The returned error is reserved for problems that affect the whole pass, such
// as an unreadable source root or a default layout that does not parse.
// Per-file problems are reported in Result.Failures.
func Compile(ctx context.Context, src, dest string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()
	res := &Result{BuildID: uuid.NewString(), StartedAt: start}
	log := opts.Logger.With(logfields.BuildID(res.BuildID))

	root, err := filepath.Abs(src)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source root").Build()
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, ferrors.FileSystemError("source root is not a directory").
			WithContext("path", root).
			WithCause(err).
			Build()
	}

	var distRoot string
	if dest != "" {
		if distRoot, err = filepath.Abs(dest); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve destination").Build()
		}
	}

	layoutPath := filepath.Join(root, opts.LayoutFile)
	var defaultLayout *layout.Template
	if layout.Exists(layoutPath) {
		if defaultLayout, err = layout.Load(layoutPath); err != nil {
			opts.Recorder.IncCompileOutcome(metrics.OutcomeFailed)
			return nil, err
		}
	}

	files, err := discover(root, distRoot, append([]string{layoutPath}, opts.IgnoreFiles...), opts.Exclude)
	if err != nil {
		opts.Recorder.IncCompileOutcome(metrics.OutcomeFailed)
		return nil, err
	}

	registry := transform.NewRegistry(transform.Options{
		BaseURL:         opts.BaseURL,
		Layout:          defaultLayout,
		Resolver:        layout.NewResolver(0),
		JSXImportSource: opts.JSXImportSource,
		Alias:           opts.Alias,
		Revision:        opts.Revision,
		DisableMinify:   opts.DisableMinify,
		Logger:          log,
	}, opts.Transformers)

	results := runSettled(files, opts.Concurrency, func(path string) (*Artifact, error) {
		return compileFile(ctx, registry, root, distRoot, path)
	})

	res.Artifacts = make(ArtifactMap, len(results))
	for i, r := range results {
		path := files[i]
		if r.Err != nil {
			fe := &FileError{Path: path, Err: r.Err}
			res.Failures = append(res.Failures, fe)
			opts.Recorder.IncFileFailure(filepath.Ext(path))
			log.Error("Failed to compile file", logfields.Path(path), logfields.Error(r.Err))
			continue
		}
		if prev, ok := res.Artifacts[r.Value.Slug]; ok {
			log.Warn("Slug collision, later source wins",
				logfields.Slug(r.Value.Slug),
				logfields.Path(r.Value.SourcePath),
				slog.String("replaced", prev.SourcePath))
		}
		res.Artifacts[r.Value.Slug] = r.Value
	}

	res.Duration = time.Since(start)
	opts.Recorder.ObserveCompileDuration(res.Duration)
	opts.Recorder.IncCompileOutcome(metrics.OutcomeFor(nil, len(res.Failures)))
	opts.Recorder.SetArtifacts(len(res.Artifacts))
	log.Info("Compile finished",
		logfields.Artifacts(len(res.Artifacts)),
		logfields.Failures(len(res.Failures)),
		logfields.Duration(res.Duration))
	return res, nil
}

// discover lists the files to compile in lexical order.
func discover(root, distRoot string, ignore, exclude []string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	ignored := make(map[string]bool, len(ignore))
	for _, p := range ignore {
		ignored[filepath.Clean(p)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skip[d.Name()] || path == distRoot) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored[path] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk source root").
			WithContext("path", root).
			Build()
	}
	return files, nil
}

func compileFile(ctx context.Context, registry *transform.Registry, root, distRoot, path string) (art *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.InternalError("transformer panicked").
				WithFile(path).
				WithCause(fmt.Errorf("%v", r)).
				Build()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read source").Build()
	}

	content, outExt, err := registry.Apply(ctx, string(data), path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "relativize source").Build()
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))

	art = &Artifact{
		Slug:        SlugFor(stem + outExt),
		Content:     content,
		SourcePath:  path,
		Fingerprint: mdfp.CalculateFingerprintFromParts("", content),
	}
	if distRoot != "" {
		art.DistPath = filepath.Join(distRoot, stem+outExt)
	}
	return art, nil
}

// SlugFor returns the URL path for a path relative to the source root.
func SlugFor(rel string) string {
	return "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}
