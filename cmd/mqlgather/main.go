// Command mqlgather consolidates MQL files scattered across a directory
// tree into a single deduplicated copy, and writes an auditable report of
// what was found and what was decided.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mqltools/mqlgather/internal/config"
	"github.com/mqltools/mqlgather/internal/engine"
	"github.com/mqltools/mqlgather/internal/event"
	"github.com/mqltools/mqlgather/internal/report"
	"github.com/mqltools/mqlgather/internal/rules"
	"github.com/mqltools/mqlgather/internal/stats"
	"github.com/mqltools/mqlgather/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func run() int {
	var (
		compiled    bool
		followGit   bool
		workers     int
		unsortedDir string
		noCache     bool
		dumpSource  bool
		csvFlag     bool
		noReport    bool
		verbose     bool
		quiet       bool
		logFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "mqlgather [flags] <source> <destination>",
		Short: "Gather and deduplicate MQL files into one organized tree",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "mqlgather %s\n", version)
				return nil
			}

			src, dst := args[0], args[1]

			// Load optional config file and apply defaults for flags not
			// explicitly set on the CLI.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults,
				&compiled, &followGit, &workers, &unsortedDir, &csvFlag, &dumpSource)

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			if workers <= 0 {
				workers = min(runtime.NumCPU(), 8)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			presenter := ui.NewPresenter(ui.Config{
				Writer:    os.Stdout,
				ErrWriter: os.Stderr,
				Stats:     collector,
				DstRoot:   dst,
				Quiet:     quiet,
				Verbose:   verbose,
				IsTTY:     ui.IsTTY(os.Stderr.Fd()),
			})

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(events)
			}()

			ruleSet := rules.Set{Compiled: compiled, FollowGit: followGit}
			engineCfg := engine.Config{
				Src:         src,
				Dst:         dst,
				Rules:       ruleSet,
				UnsortedDir: unsortedDir,
				Workers:     workers,
				NoCache:     noCache,
				Events:      events,
				Stats:       collector,
			}

			slog.Debug("starting gather",
				"src", src,
				"dst", dst,
				"workers", workers,
				"compiled", compiled,
				"follow_git", followGit,
			)

			result := engine.Run(ctx, engineCfg)
			stop()

			if result.Err != nil {
				close(events)
				presenterWg.Wait()
				slog.Error("gather failed", "error", result.Err)
				return &exitError{code: 2}
			}

			if !noReport {
				builder := report.Builder{
					SearchPath: absOr(src),
					SavePath:   absOr(dst),
					Extensions: ruleSet.Extensions(),
					DumpSource: dumpSource,
				}
				doc := builder.Build(result.Manifest, result.Diffs)

				jsonPath := filepath.Join(dst, engine.ReportJSONName)
				if err := doc.WriteJSON(jsonPath); err != nil {
					slog.Error("write report", "error", err)
				} else {
					event.Emit(events, event.Event{Type: event.ReportWritten, Dest: jsonPath})
				}

				if csvFlag {
					csvPath := filepath.Join(dst, engine.ReportCSVName)
					if err := doc.WriteCSV(csvPath); err != nil {
						slog.Error("write csv report", "error", err)
					} else {
						event.Emit(events, event.Event{Type: event.ReportWritten, Dest: csvPath})
					}
				}
			}

			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if result.Stats.FilesFailed > 0 {
				return &exitError{code: 1} // partial failure
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().BoolVar(&compiled, "compiled", false, "also gather compiled .ex4/.ex5 artifacts")
	rootCmd.Flags().BoolVar(&followGit, "follow-git", false, "include .git contents inside recognized subtrees")
	rootCmd.Flags().IntVarP(&workers, "workers", "n", 0, "hash workers (default: min(NumCPU, 8))")
	rootCmd.Flags().StringVar(&unsortedDir, "unsorted-dir", "", "name of the fallback bucket (default: UNORGANIZED)")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the fingerprint cache")
	rootCmd.Flags().BoolVar(&dumpSource, "dump-source", false, "embed decoded source text in report records")
	rootCmd.Flags().BoolVar(&csvFlag, "csv", false, "also write FILE_REPORT.csv")
	rootCmd.Flags().BoolVar(&noReport, "no-report", false, "skip report emission")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	compiled *bool,
	followGit *bool,
	workers *int,
	unsortedDir *string,
	csvFlag *bool,
	dumpSource *bool,
) {
	if !cmd.Flags().Changed("compiled") && defaults.Compiled != nil {
		*compiled = *defaults.Compiled
	}
	if !cmd.Flags().Changed("follow-git") && defaults.FollowGit != nil {
		*followGit = *defaults.FollowGit
	}
	if !cmd.Flags().Changed("workers") && defaults.Workers != nil {
		*workers = *defaults.Workers
	}
	if !cmd.Flags().Changed("unsorted-dir") && defaults.UnsortedDir != nil {
		*unsortedDir = *defaults.UnsortedDir
	}
	if !cmd.Flags().Changed("csv") && defaults.CSV != nil {
		*csvFlag = *defaults.CSV
	}
	if !cmd.Flags().Changed("dump-source") && defaults.DumpSource != nil {
		*dumpSource = *defaults.DumpSource
	}
}

func absOr(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
