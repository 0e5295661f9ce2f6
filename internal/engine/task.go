package engine

import "time"

// Fingerprint is the hex-encoded BLAKE3 digest of a file's full contents,
// or Unknown when the file could not be read.
type Fingerprint string

// Unknown is the sentinel fingerprint for unreadable files. Unknown never
// compares equal to another Unknown for dedup purposes: two files we could
// not read are not evidence of duplicate content.
const Unknown Fingerprint = "unknown"

// Known reports whether f identifies actual content.
func (f Fingerprint) Known() bool {
	return f != Unknown && f != ""
}

func (f Fingerprint) String() string {
	return string(f)
}

// FileHandle is a resolved filesystem entry under consideration. It is
// re-derived from the filesystem on each scan and never mutated.
type FileHandle struct {
	Path       string // absolute
	Ext        string
	Size       int64
	ModTime    time.Time
	IsSrc      bool // MQL source-code extension
	Recognized bool // lies under a recognized subtree
}
