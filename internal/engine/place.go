package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/mqltools/mqlgather/internal/event"
	"github.com/mqltools/mqlgather/internal/platform"
	"github.com/mqltools/mqlgather/internal/stats"
)

// Placer applies the collision-resolution loop for one engine run. It owns
// the manifest and the diff-record set; placement must stay serialized per
// run so the check-then-copy sequence observes a consistent manifest.
type Placer struct {
	Resolver Resolver
	Manifest *Manifest
	Cache    *Cache
	Stats    *stats.Collector
	Events   chan<- event.Event

	mu    sync.Mutex
	diffs map[string]struct{}
}

// Diffs returns the destinations that received a numeric suffix because a
// different-content file wanted the same name, sorted.
func (p *Placer) Diffs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.diffs))
	for d := range p.diffs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (p *Placer) recordDiff(dest string) {
	p.mu.Lock()
	if p.diffs == nil {
		p.diffs = make(map[string]struct{})
	}
	p.diffs[dest] = struct{}{}
	p.mu.Unlock()
}

// suffixed returns dest with a numeric rename suffix: name(n).ext.
func suffixed(dest string, n int) string {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(filepath.Base(dest), ext)
	return filepath.Join(filepath.Dir(dest), fmt.Sprintf("%s(%d)%s", stem, n, ext))
}

// Place decides and executes placement for one source file. The loop
// terminates because each retry strictly increases the rename suffix.
// Returns whether a copy happened and the destination the content ended
// up at (or was already present at).
//
// Per-file failures are returned as errors but are never fatal to a run:
// the caller logs them and moves on. An existing destination is only ever
// read, never overwritten.
func (p *Placer) Place(h FileHandle, fp Fingerprint) (copied bool, dest string, err error) {
	_, dest = p.Resolver.Resolve(h.Path)

	base := dest
	for n := 0; ; n++ {
		if n > 0 {
			dest = suffixed(base, n)
		}

		// Already materialized here: idempotent skip.
		if p.Manifest.Contains(fp, dest) {
			p.Stats.AddFilesSkipped(1)
			event.Emit(p.Events, event.Event{Type: event.FileSkipped, Path: h.Path, Dest: dest})
			return false, dest, nil
		}

		if _, statErr := os.Lstat(dest); statErr == nil {
			// Same content under the same name: satisfied, record the
			// entry the seeding pass evidently missed.
			if fp.Known() && FingerprintFile(dest) == fp {
				p.Manifest.Add(fp, dest)
				p.Stats.AddFilesSkipped(1)
				event.Emit(p.Events, event.Event{Type: event.FileSkipped, Path: h.Path, Dest: dest})
				return false, dest, nil
			}
			// Different (or unreadable) content wants this name: rename
			// and retry. The renamed destination is the diff record.
			next := suffixed(base, n+1)
			p.recordDiff(next)
			p.Stats.AddFilesRenamed(1)
			event.Emit(p.Events, event.Event{Type: event.FileRenamed, Path: h.Path, Dest: next})
			continue
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			p.Stats.AddFilesFailed(1)
			return false, dest, fmt.Errorf("stat %s: %w", dest, statErr)
		}

		if err := p.copyFile(h, dest); err != nil {
			p.Stats.AddFilesFailed(1)
			event.Emit(p.Events, event.Event{Type: event.FileFailed, Path: h.Path, Dest: dest, Error: err})
			return false, dest, err
		}

		p.Manifest.Add(fp, dest)
		p.Manifest.RecordVCSRoot(dest)
		if p.Cache != nil && fp.Known() {
			if info, statErr := os.Stat(dest); statErr == nil {
				_ = p.Cache.Put(dest, info.Size(), info.ModTime().UnixNano(), fp)
			}
		}
		p.Stats.AddFilesCopied(1)
		p.Stats.AddBytesCopied(h.Size)
		event.Emit(p.Events, event.Event{Type: event.FileCopied, Path: h.Path, Dest: dest, Size: h.Size})
		return true, dest, nil
	}
}

// copyFile copies source contents and metadata to dest via a hidden temp
// file and an atomic rename, so a destination is never partially visible.
func (p *Placer) copyFile(h FileHandle, dest string) error {
	info, err := os.Stat(h.Path)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", h.Path, err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	tmpName := fmt.Sprintf(".%s.%s.mqlgather-tmp", filepath.Base(dest), uuid.New().String()[:8])
	tmpPath := filepath.Join(dir, tmpName)
	defer func() {
		_ = os.Remove(tmpPath) // no-op once rename succeeded
	}()

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}

	if info.Size() > 0 {
		if _, err := platform.CopyFile(platform.CopyFileParams{
			DstFd:   tmpFd,
			SrcPath: h.Path,
			SrcSize: info.Size(),
		}); err != nil {
			tmpFd.Close()
			return fmt.Errorf("copy data %s: %w", h.Path, err)
		}
	}

	if err := setMetadata(tmpFd, info); err != nil {
		tmpFd.Close()
		return fmt.Errorf("set metadata %s: %w", dest, err)
	}

	if err := tmpFd.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dest, err)
	}
	return nil
}

// setMetadata mirrors the source's permissions and timestamps onto the
// open destination before it is renamed into place.
func setMetadata(fd *os.File, info os.FileInfo) error {
	rawFd := int(fd.Fd())

	if err := unix.Fchmod(rawFd, uint32(info.Mode().Perm())); err != nil {
		return fmt.Errorf("fchmod: %w", err)
	}

	atime := info.ModTime()
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		atime = atimeFromStat(stat)
	}
	if err := setTimes(rawFd, fd.Name(), atime, info.ModTime()); err != nil {
		return fmt.Errorf("utimensat: %w", err)
	}

	return nil
}
