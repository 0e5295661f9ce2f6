// Package stats tracks run counters with lock-free atomics.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks gather-run statistics. All methods are safe for
// concurrent use.
type Collector struct {
	filesScanned    atomic.Int64 // candidates emitted by the scanner
	filesHashed     atomic.Int64
	filesUnreadable atomic.Int64
	filesSeeded     atomic.Int64 // pre-existing destination files
	filesCopied     atomic.Int64
	filesSkipped    atomic.Int64 // already satisfied or suppressed duplicates
	filesRenamed    atomic.Int64 // suffixed destinations (diff records)
	filesFailed     atomic.Int64
	bytesCopied     atomic.Int64
	startTime       time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesScanned(n int64)    { c.filesScanned.Add(n) }
func (c *Collector) AddFilesHashed(n int64)     { c.filesHashed.Add(n) }
func (c *Collector) AddFilesUnreadable(n int64) { c.filesUnreadable.Add(n) }
func (c *Collector) AddFilesSeeded(n int64)     { c.filesSeeded.Add(n) }
func (c *Collector) AddFilesCopied(n int64)     { c.filesCopied.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)    { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesRenamed(n int64)    { c.filesRenamed.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddBytesCopied(n int64)     { c.bytesCopied.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesScanned    int64
	FilesHashed     int64
	FilesUnreadable int64
	FilesSeeded     int64
	FilesCopied     int64
	FilesSkipped    int64
	FilesRenamed    int64
	FilesFailed     int64
	BytesCopied     int64
	Elapsed         time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:    c.filesScanned.Load(),
		FilesHashed:     c.filesHashed.Load(),
		FilesUnreadable: c.filesUnreadable.Load(),
		FilesSeeded:     c.filesSeeded.Load(),
		FilesCopied:     c.filesCopied.Load(),
		FilesSkipped:    c.filesSkipped.Load(),
		FilesRenamed:    c.filesRenamed.Load(),
		FilesFailed:     c.filesFailed.Load(),
		BytesCopied:     c.bytesCopied.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d hashed=%d copied=%d skipped=%d renamed=%d unreadable=%d failed=%d bytes=%d",
		s.FilesScanned, s.FilesHashed, s.FilesCopied, s.FilesSkipped,
		s.FilesRenamed, s.FilesUnreadable, s.FilesFailed, s.BytesCopied,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
