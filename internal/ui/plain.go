package ui

import (
	"fmt"
	"io"

	"github.com/mqltools/mqlgather/internal/stats"
)

// plainPresenter prints one line per placement decision to stdout and
// phase markers to stderr.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	verbose bool
	tty     bool // phase markers are interactive chatter
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case SeedStarted:
		if p.tty {
			fmt.Fprintf(p.errW, "scanning existing files in %s...\n", ev.Dest)
		}
	case SeedComplete:
		if p.tty {
			fmt.Fprintf(p.errW, "seeded %s existing files\n", FormatCount(ev.Total))
		}
	case ScanStarted:
		if p.tty {
			fmt.Fprintf(p.errW, "searching %s...\n", ev.Path)
		}
	case ScanComplete:
		if p.tty {
			fmt.Fprintf(p.errW, "found %s candidate files\n", FormatCount(ev.Total))
		}
	case FileCopied:
		fmt.Fprintf(p.w, "copied   %s  %s\n", ev.Dest, FormatBytes(ev.Size))
	case FileRenamed:
		fmt.Fprintf(p.w, "renamed  %s\n", ev.Dest)
	case FileSkipped:
		if p.verbose {
			target := ev.Dest
			if target == "" {
				target = ev.Path
			}
			fmt.Fprintf(p.w, "skipped  %s\n", target)
		}
	case FileUnreadable:
		fmt.Fprintf(p.errW, "unreadable: %s\n", ev.Path)
	case FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.errW, "failed   %s: %s\n", ev.Path, errMsg)
	case ReportWritten:
		fmt.Fprintf(p.errW, "report ready @ %s\n", ev.Dest)
	case FileHashed:
		// too chatty even for verbose
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
