package engine

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mqltools/mqlgather/internal/event"
	"github.com/mqltools/mqlgather/internal/rules"
	"github.com/mqltools/mqlgather/internal/stats"
)

// ManifestEntry records that content with a given fingerprint is already
// materialized at a destination path.
type ManifestEntry struct {
	Fingerprint Fingerprint
	Dest        string
}

type manifestKey struct {
	fp   Fingerprint
	dest string
}

// Manifest is the authoritative record of what is present in the output
// tree. It is seeded from the existing tree at startup and only grows
// during a run. It additionally collects VCS root paths for reporting.
type Manifest struct {
	mu      sync.Mutex
	entries map[manifestKey]struct{}
	vcs     map[string]struct{}
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[manifestKey]struct{}),
		vcs:     make(map[string]struct{}),
	}
}

// Add inserts an entry. Returns false if the pair was already present.
func (m *Manifest) Add(fp Fingerprint, dest string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := manifestKey{fp: fp, dest: dest}
	if _, ok := m.entries[k]; ok {
		return false
	}
	m.entries[k] = struct{}{}
	return true
}

// Contains reports whether (fp, dest) is recorded. Unknown fingerprints
// never match: an unreadable file is not evidence of anything.
func (m *Manifest) Contains(fp Fingerprint, dest string) bool {
	if !fp.Known() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[manifestKey{fp: fp, dest: dest}]
	return ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns all entries sorted by destination path, then fingerprint.
func (m *Manifest) Entries() []ManifestEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ManifestEntry, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, ManifestEntry{Fingerprint: k.fp, Dest: k.dest})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dest != out[j].Dest {
			return out[i].Dest < out[j].Dest
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out
}

// RecordVCSRoot notes the .git directory in path's ancestry, if any.
// Purely observational; never used in placement decisions.
func (m *Manifest) RecordVCSRoot(path string) {
	segs := rules.Segments(path)
	for i, seg := range segs {
		if seg != ".git" {
			continue
		}
		root := string(filepath.Separator) + filepath.Join(segs[:i+1]...)
		if !strings.HasPrefix(path, string(filepath.Separator)) {
			root = filepath.Join(segs[:i+1]...)
		}
		m.mu.Lock()
		m.vcs[root] = struct{}{}
		m.mu.Unlock()
		return
	}
}

// VCSRoots returns the recorded VCS root paths, sorted.
func (m *Manifest) VCSRoots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.vcs))
	for p := range m.vcs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// isReportArtifact reports whether a destination file is a report emitted
// by a previous run and must not enter the manifest. JSON is never a
// gathered extension so any .json is excluded; the CSV export is matched
// by name because .csv is a legitimate gathered extension.
func isReportArtifact(dstRoot, path string) bool {
	if filepath.Ext(path) == ".json" {
		return true
	}
	return path == filepath.Join(dstRoot, ReportCSVName)
}

// Seed walks an existing output tree and records a ManifestEntry for every
// non-report file, so re-runs are idempotent against prior (possibly
// interrupted) runs. A nil cache recomputes every fingerprint.
func (m *Manifest) Seed(ctx context.Context, dstRoot string, cache *Cache, collector *stats.Collector, events chan<- event.Event) error {
	event.Emit(events, event.Event{Type: event.SeedStarted, Dest: dstRoot})

	err := filepath.WalkDir(dstRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, stay idempotent elsewhere
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.RecordVCSRoot(path)
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if isReportArtifact(dstRoot, path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		fp := cachedFingerprint(cache, path, info.Size(), info.ModTime().UnixNano())
		m.Add(fp, path)
		collector.AddFilesSeeded(1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed manifest from %s: %w", dstRoot, err)
	}

	event.Emit(events, event.Event{Type: event.SeedComplete, Dest: dstRoot, Total: int64(m.Len())})
	return nil
}

// cachedFingerprint consults the cache before hashing; hits must match
// size and mtime or the entry is recomputed and rewritten.
func cachedFingerprint(cache *Cache, path string, size, mtimeNano int64) Fingerprint {
	if cache != nil {
		if fp, ok := cache.Lookup(path, size, mtimeNano); ok {
			return fp
		}
	}
	fp := FingerprintFile(path)
	if cache != nil && fp.Known() {
		_ = cache.Put(path, size, mtimeNano, fp)
	}
	return fp
}
