package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of entries to show"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(overrides{})
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("build history is disabled; set history.path in the config file").
			WithContext("field", "history.path").
			Build()
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	PrintHistory(g.stdout(), entries)
	return nil
}

// PrintHistory writes one line per entry.
func PrintHistory(w io.Writer, entries []compiler.Summary) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No builds recorded")
		return
	}
	for _, e := range entries {
		status := "ok"
		switch {
		case e.Error != "":
			status = "failed: " + e.Error
		case e.Failures > 0:
			status = fmt.Sprintf("partial: %d failed", e.Failures)
		}
		fmt.Fprintf(w, "%s  %-5s  %4d artifacts  %s  %8.1fms  %s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Trigger, e.Artifacts,
			compiler.Size(e.Bytes), e.Duration, status)
	}
}
