// Package ui presents engine progress: a plain line-per-decision feed or
// nothing at all, plus the shared slog fan-out handler.
package ui

import (
	"io"

	"github.com/mqltools/mqlgather/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     *stats.Collector
	DstRoot   string
	Quiet     bool
	Verbose   bool
	// IsTTY gates interactive phase chatter; piped output keeps only the
	// decision feed and errors.
	IsTTY bool
}

// NewPresenter creates the appropriate presenter based on configuration.
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		verbose: cfg.Verbose,
		tty:     cfg.IsTTY,
	}
}
