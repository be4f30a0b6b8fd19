package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/git"
	"git.home.luguber.info/inful/pub/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Src     string `arg:"" help:"Source directory" type:"existingdir"`
	Dest    string `arg:"" help:"Destination directory"`
	BaseURL string `name:"base-url" help:"Base path prepended to relative asset URLs (overrides config)"`
	Strict  bool   `help:"Fail when any file fails to compile"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	log := g.logger()
	cfg, err := root.loadConfig(overrides{BaseURL: b.BaseURL})
	if err != nil {
		return err
	}
	sinks, err := openSinks(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = sinks.Close() }()

	opts := cfg.CompileOptions()
	opts.Logger = log
	opts.Revision = git.RevisionFunc(b.Src)()
	if abs, absErr := filepath.Abs(root.Config); absErr == nil {
		opts.IgnoreFiles = append(opts.IgnoreFiles, abs)
	}

	ctx := context.Background()
	started := time.Now()
	res, err := compiler.Compile(ctx, b.Src, b.Dest, opts)
	sinks.observe(ctx, compiler.Summarize(compiler.TriggerBuild, started, res, err))
	if err != nil {
		return err
	}

	if err := compiler.Write(res.Artifacts); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write artifacts").
			WithContext("dest", b.Dest).
			Build()
	}

	PrintSummary(g.stdout(), b.Dest, res)
	for _, f := range res.Failures {
		fmt.Fprintf(g.stderr(), "error: %v\n", f)
	}
	log.Info("Build finished",
		logfields.BuildID(res.BuildID),
		logfields.Artifacts(len(res.Artifacts)),
		logfields.Failures(len(res.Failures)),
		logfields.Duration(res.Duration))

	if b.Strict && len(res.Failures) > 0 {
		return ferrors.TransformError(fmt.Sprintf("%d file(s) failed to compile", len(res.Failures))).
			WithContext("failures", len(res.Failures)).
			Build()
	}
	return nil
}

// PrintSummary lists every written artifact with its size, sorted by path,
// followed by the destination directory.
func PrintSummary(w io.Writer, dest string, res *compiler.Result) {
	type row struct{ path, size string }
	var rows []row
	for _, a := range res.Artifacts {
		if a.DistPath == "" {
			continue
		}
		rows = append(rows, row{path: displayPath(a.DistPath), size: compiler.Size(a.Size())})
	}
	slices.SortFunc(rows, func(a, b row) int { return strings.Compare(a.path, b.path) })

	for _, r := range rows {
		fmt.Fprintf(w, "    %s %s\n", r.size, r.path)
	}
	fmt.Fprintf(w, "\n✓ Built to %s\n", displayPath(dest))
}

// displayPath shortens p relative to the working directory when it lies below it.
func displayPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	wd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return "." + string(filepath.Separator) + rel
}
