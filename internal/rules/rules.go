// Package rules decides which files qualify for gathering and whether a
// path lies under a recognized MQL subtree.
package rules

import (
	"path/filepath"
	"sort"
	"strings"
)

// srcExtensions are MQL source files, gathered wherever they are found.
var srcExtensions = map[string]bool{
	".mqh": true,
	".mq4": true,
	".mq5": true,
}

// compiledExtensions are build artifacts, gathered only when opted in.
var compiledExtensions = map[string]bool{
	".ex4": true,
	".ex5": true,
}

// boundExtensions are auxiliary project files, gathered only when the path
// lies under a recognized subtree.
var boundExtensions = map[string]bool{
	".dll": true, ".mqproj": true, ".py": true, ".cl": true,
	".tpl": true, ".html": true, ".set": true, ".wav": true,
	".chr": true, ".wnd": true, ".bin": true, ".ini": true,
	".bmp": true, ".png": true, ".txt": true, ".csv": true,
}

// rootMarkers are the path segments that anchor a recognized subtree.
var rootMarkers = map[string]bool{
	"MQL4": true,
	"MQL5": true,
}

// reservedSegments name directories that are never traversed.
var reservedSegments = map[string]bool{
	"$Recycle.Bin": true,
}

const gitSegment = ".git"

// Set is the inclusion policy for one run.
type Set struct {
	// Compiled extends the always-include extensions with .ex4/.ex5.
	Compiled bool
	// FollowGit includes version-control metadata found inside
	// recognized subtrees.
	FollowGit bool
}

// Segments splits a path into its directory components, tolerating both
// slash styles so Windows-origin paths behave in tests and reports.
func Segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// IsSrc reports whether ext is an MQL source-code extension.
func IsSrc(ext string) bool {
	return srcExtensions[ext]
}

// Reserved reports whether any segment of path names a directory that must
// not be traversed.
func Reserved(path string) bool {
	for _, seg := range Segments(path) {
		if reservedSegments[seg] {
			return true
		}
	}
	return false
}

// ReservedSegment reports whether a single path segment is reserved.
func ReservedSegment(seg string) bool {
	return reservedSegments[seg]
}

// UnderMarker reports whether any segment of path is a recognized root
// marker. This is the grouping flag: a file under a marker belongs to the
// recognized subset of its dedup group even when marker ambiguity later
// sends it to the fallback bucket.
func UnderMarker(path string) bool {
	for _, seg := range Segments(path) {
		if rootMarkers[seg] {
			return true
		}
	}
	return false
}

// DistinctMarkers returns the distinct recognized root markers present in
// path, in first-occurrence order.
func DistinctMarkers(path string) []string {
	var found []string
	seen := map[string]bool{}
	for _, seg := range Segments(path) {
		if rootMarkers[seg] && !seen[seg] {
			seen[seg] = true
			found = append(found, seg)
		}
	}
	return found
}

func hasGitSegment(path string) bool {
	for _, seg := range Segments(path) {
		if seg == gitSegment {
			return true
		}
	}
	return false
}

func (s Set) looseExtension(ext string) bool {
	if srcExtensions[ext] {
		return true
	}
	return s.Compiled && compiledExtensions[ext]
}

// Candidate reports whether the file at path qualifies for gathering, and
// whether it lies under a recognized subtree. Loose extensions qualify
// anywhere; bound extensions and (optionally) .git contents qualify only
// under a recognized subtree.
func (s Set) Candidate(path string) (ok, recognized bool) {
	recognized = UnderMarker(path)
	ext := filepath.Ext(path)
	if s.looseExtension(ext) {
		return true, recognized
	}
	if recognized {
		if boundExtensions[ext] {
			return true, true
		}
		if s.FollowGit && hasGitSegment(path) {
			return true, true
		}
	}
	return false, recognized
}

// Extensions returns the sorted set of extensions this policy considers,
// for inclusion in the report.
func (s Set) Extensions() []string {
	var exts []string
	for ext := range srcExtensions {
		exts = append(exts, ext)
	}
	if s.Compiled {
		for ext := range compiledExtensions {
			exts = append(exts, ext)
		}
	}
	for ext := range boundExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
