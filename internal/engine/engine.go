// Package engine implements the dedup-and-reorganize core: fingerprinting,
// scanning, the dedup index, destination resolution, collision handling and
// the manifest of materialized content.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mqltools/mqlgather/internal/event"
	"github.com/mqltools/mqlgather/internal/rules"
	"github.com/mqltools/mqlgather/internal/stats"
)

// Report artifact names at the destination root. Seeding must never pull
// these into the manifest.
const (
	ReportJSONName = "FILE_REPORT.json"
	ReportCSVName  = "FILE_REPORT.csv"
)

// Config describes a gather run.
type Config struct {
	Src         string
	Dst         string
	Rules       rules.Set
	UnsortedDir string // fallback bucket name, default UNORGANIZED
	Workers     int    // hash workers
	NoCache     bool   // disable the fingerprint cache
	Events      chan<- event.Event
	Stats       *stats.Collector
}

// Result is the outcome of a gather run. Manifest and Diffs reflect
// exactly what is present in the output tree at completion.
type Result struct {
	Manifest *Manifest
	Diffs    []string
	Stats    stats.Snapshot
	Err      error
}

// Run executes one gather pass, blocking until complete. Startup problems
// (missing source, uncreatable destination) are fatal; per-file problems
// are logged and the run continues.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	srcInfo, err := os.Stat(cfg.Src)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err)}
	}
	if !srcInfo.IsDir() {
		return Result{Err: fmt.Errorf("source %s is not a directory", cfg.Src)}
	}
	if err := os.MkdirAll(cfg.Dst, 0755); err != nil {
		return Result{Err: fmt.Errorf("create destination: %w", err)}
	}

	var cache *Cache
	if !cfg.NoCache {
		cache, err = OpenCache(cfg.Dst)
		if err != nil {
			slog.Warn("fingerprint cache unavailable, hashing everything", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	manifest := NewManifest()
	if err := manifest.Seed(ctx, cfg.Dst, cache, collector, cfg.Events); err != nil {
		return Result{Manifest: manifest, Stats: collector.Snapshot(), Err: err}
	}

	event.Emit(cfg.Events, event.Event{Type: event.ScanStarted, Path: cfg.Src})
	scanner := NewScanner(ScannerConfig{
		Root:    cfg.Src,
		Rules:   cfg.Rules,
		Workers: cfg.Workers,
	})
	handles, scanErrs := scanner.Scan(ctx)

	// Count candidates on their way into the hash pool. The feeder must
	// not outlive a cancelled run once the hash workers stop consuming.
	counted := make(chan FileHandle, cap(handles))
	go func() {
		defer close(counted)
		for h := range handles {
			collector.AddFilesScanned(1)
			select {
			case counted <- h:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Drain scanner errors; they are advisory.
	var scanErrCount int
	var firstScanErr error
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		for err := range scanErrs {
			scanErrCount++
			if firstScanErr == nil {
				firstScanErr = err
			}
			slog.Warn("scan", "error", err)
		}
	}()

	index := BuildIndex(ctx, counted, cfg.Workers, collector, cfg.Events)
	<-scanDone
	event.Emit(cfg.Events, event.Event{Type: event.ScanComplete, Total: int64(index.Len())})

	placer := &Placer{
		Resolver: NewResolver(cfg.Dst, cfg.UnsortedDir),
		Manifest: manifest,
		Cache:    cache,
		Stats:    collector,
		Events:   cfg.Events,
	}

	// Sequential copy pass over deterministic group order: the collision
	// loop is stateful and must observe a consistent manifest.
	runErr := ctx.Err()
	for _, group := range index.Groups() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		for _, h := range group.Skipped() {
			collector.AddFilesSkipped(1)
			event.Emit(cfg.Events, event.Event{Type: event.FileSkipped, Path: h.Path})
		}
		for _, h := range group.Placeable() {
			if err := ctx.Err(); err != nil {
				runErr = err
				break
			}
			if _, _, err := placer.Place(h, group.Fingerprint); err != nil {
				slog.Warn("place", "source", h.Path, "error", err)
			}
		}
	}

	if cache != nil {
		if err := cache.Flush(); err != nil {
			slog.Warn("flush fingerprint cache", "error", err)
		}
	}

	if runErr == nil && firstScanErr != nil && scanErrCount > 1 {
		slog.Warn("scan finished with errors", "count", scanErrCount, "first", firstScanErr)
	}

	return Result{
		Manifest: manifest,
		Diffs:    placer.Diffs(),
		Stats:    collector.Snapshot(),
		Err:      runErr,
	}
}
