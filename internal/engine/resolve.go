package engine

import (
	"path/filepath"

	"github.com/mqltools/mqlgather/internal/rules"
)

// DefaultFallbackDir is where files with no recognized structure land.
const DefaultFallbackDir = "UNORGANIZED"

// Resolver computes canonical destinations under the output root.
type Resolver struct {
	DstRoot  string
	Fallback string // fallback bucket directory name
}

// NewResolver creates a resolver. An empty fallback name selects
// DefaultFallbackDir.
func NewResolver(dstRoot, fallback string) Resolver {
	if fallback == "" {
		fallback = DefaultFallbackDir
	}
	return Resolver{DstRoot: dstRoot, Fallback: fallback}
}

// Resolve maps a source path to its destination. A path containing exactly
// one distinct recognized marker keeps its structure from the LAST
// occurrence of that marker (the occurrence closest to the file); zero or
// ambiguous markers flatten into the fallback bucket under the base name.
func (r Resolver) Resolve(sourcePath string) (recognized bool, dst string) {
	markers := rules.DistinctMarkers(sourcePath)
	if len(markers) != 1 {
		return false, filepath.Join(r.DstRoot, r.Fallback, filepath.Base(sourcePath))
	}

	segs := rules.Segments(sourcePath)
	last := -1
	for i, seg := range segs {
		if seg == markers[0] {
			last = i
		}
	}

	parts := append([]string{r.DstRoot}, segs[last:]...)
	return true, filepath.Join(parts...)
}
