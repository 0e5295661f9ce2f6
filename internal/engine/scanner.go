package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mqltools/mqlgather/internal/rules"
)

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	Root    string
	Rules   rules.Set
	Workers int
}

// Scanner traverses a source tree in parallel and emits candidate
// FileHandle items. Traversal is pure: no filesystem mutation.
type Scanner struct {
	cfg     ScannerConfig
	handles chan FileHandle
	errs    chan error
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	return &Scanner{
		cfg:     cfg,
		handles: make(chan FileHandle, cfg.Workers*4),
		errs:    make(chan error, cfg.Workers*4),
	}
}

// Scan starts the scanner and returns channels for candidates and errors.
// The caller must consume from both channels until they close. Errors are
// advisory: an unreadable directory is reported and skipped, never fatal.
func (s *Scanner) Scan(ctx context.Context) (<-chan FileHandle, <-chan error) {
	go func() {
		defer close(s.handles)
		defer close(s.errs)
		s.scanTree(ctx)
	}()

	return s.handles, s.errs
}

func (s *Scanner) scanTree(ctx context.Context) {
	workQueue := make(chan string, s.cfg.Workers*2)
	var outstanding sync.WaitGroup // directories queued but not yet processed

	var workerWg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for dirPath := range workQueue {
				s.scanDir(ctx, dirPath, workQueue, &outstanding)
				outstanding.Done()
			}
		}()
	}

	outstanding.Add(1)
	workQueue <- s.cfg.Root

	// Wait for all directory work to finish, then close the work queue
	// so workers exit their range loop.
	outstanding.Wait()
	close(workQueue)
	workerWg.Wait()
}

func (s *Scanner) scanDir(ctx context.Context, dirPath string, workQueue chan<- string, outstanding *sync.WaitGroup) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		s.sendErr(fmt.Errorf("readdir %s: %w", dirPath, err))
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entryPath := filepath.Join(dirPath, entry.Name())

		if entry.IsDir() {
			if rules.ReservedSegment(entry.Name()) {
				continue
			}
			outstanding.Add(1)
			select {
			case workQueue <- entryPath:
			case <-ctx.Done():
				outstanding.Done()
				return
			}
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		ok, recognized := s.cfg.Rules.Candidate(entryPath)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.sendErr(fmt.Errorf("stat %s: %w", entryPath, err))
			continue
		}

		abs, err := filepath.Abs(entryPath)
		if err != nil {
			abs = entryPath
		}

		ext := filepath.Ext(entryPath)
		h := FileHandle{
			Path:       abs,
			Ext:        ext,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			IsSrc:      rules.IsSrc(ext),
			Recognized: recognized,
		}
		select {
		case s.handles <- h:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scanner) sendErr(err error) {
	select {
	case s.errs <- err:
	default:
	}
}
