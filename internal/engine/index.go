package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/mqltools/mqlgather/internal/event"
	"github.com/mqltools/mqlgather/internal/stats"
)

// DedupGroup holds the files sharing one fingerprint, split by whether
// they live under a recognized subtree. A file belongs to exactly one
// group and exactly one subset.
type DedupGroup struct {
	Fingerprint Fingerprint
	Recognized  []FileHandle
	Other       []FileHandle
}

// Placeable returns the subset the placement pass should consider.
// Recognized files win: an unrecognized duplicate of content already
// represented in the organized output is redundant.
func (g *DedupGroup) Placeable() []FileHandle {
	if len(g.Recognized) > 0 {
		return g.Recognized
	}
	return g.Other
}

// Skipped returns the subset suppressed by the recognized-over-other policy.
func (g *DedupGroup) Skipped() []FileHandle {
	if len(g.Recognized) > 0 {
		return g.Other
	}
	return nil
}

// Index groups scanned files by fingerprint. It is built once per run and
// discarded after the copy pass.
type Index struct {
	mu     sync.Mutex
	groups map[Fingerprint]*DedupGroup
	// Unreadable files are mutually unique: each forms its own group
	// rather than pooling under the Unknown sentinel.
	unknown []FileHandle
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{groups: make(map[Fingerprint]*DedupGroup)}
}

// Add inserts a handle under its fingerprint. Safe for concurrent use.
func (ix *Index) Add(h FileHandle, fp Fingerprint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !fp.Known() {
		ix.unknown = append(ix.unknown, h)
		return
	}

	g, ok := ix.groups[fp]
	if !ok {
		g = &DedupGroup{Fingerprint: fp}
		ix.groups[fp] = g
	}
	if h.Recognized {
		g.Recognized = append(g.Recognized, h)
	} else {
		g.Other = append(g.Other, h)
	}
}

// Len returns the number of files added.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := len(ix.unknown)
	for _, g := range ix.groups {
		n += len(g.Recognized) + len(g.Other)
	}
	return n
}

// Groups returns all dedup groups in deterministic order: known
// fingerprints sorted lexicographically, then one singleton group per
// unreadable file in source-path order. Subsets are sorted by source path
// so the first-discovered winner of an un-suffixed name is stable.
func (ix *Index) Groups() []*DedupGroup {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	out := make([]*DedupGroup, 0, len(ix.groups)+len(ix.unknown))
	for _, g := range ix.groups {
		sortHandles(g.Recognized)
		sortHandles(g.Other)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Fingerprint < out[j].Fingerprint
	})

	unknown := append([]FileHandle(nil), ix.unknown...)
	sortHandles(unknown)
	for _, h := range unknown {
		g := &DedupGroup{Fingerprint: Unknown}
		if h.Recognized {
			g.Recognized = []FileHandle{h}
		} else {
			g.Other = []FileHandle{h}
		}
		out = append(out, g)
	}
	return out
}

func sortHandles(hs []FileHandle) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Path < hs[j].Path })
}

// BuildIndex fans fingerprint computation out across workers and folds the
// results into a fresh index. It consumes the handles channel to
// completion unless ctx is cancelled.
func BuildIndex(ctx context.Context, handles <-chan FileHandle, workers int, collector *stats.Collector, events chan<- event.Event) *Index {
	if workers <= 0 {
		workers = 4
	}

	ix := NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range handles {
				select {
				case <-ctx.Done():
					return
				default:
				}

				fp := FingerprintFile(h.Path)
				ix.Add(h, fp)
				if fp.Known() {
					collector.AddFilesHashed(1)
					event.Emit(events, event.Event{Type: event.FileHashed, Path: h.Path, Size: h.Size})
				} else {
					collector.AddFilesUnreadable(1)
					event.Emit(events, event.Event{Type: event.FileUnreadable, Path: h.Path})
				}
			}
		}()
	}
	wg.Wait()
	return ix
}
