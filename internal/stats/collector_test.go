package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.AddFilesScanned(5)
	c.AddFilesHashed(4)
	c.AddFilesUnreadable(1)
	c.AddFilesSeeded(2)
	c.AddFilesCopied(3)
	c.AddFilesSkipped(1)
	c.AddFilesRenamed(1)
	c.AddFilesFailed(1)
	c.AddBytesCopied(1024)

	s := c.Snapshot()
	assert.Equal(t, int64(5), s.FilesScanned)
	assert.Equal(t, int64(4), s.FilesHashed)
	assert.Equal(t, int64(1), s.FilesUnreadable)
	assert.Equal(t, int64(2), s.FilesSeeded)
	assert.Equal(t, int64(3), s.FilesCopied)
	assert.Equal(t, int64(1), s.FilesSkipped)
	assert.Equal(t, int64(1), s.FilesRenamed)
	assert.Equal(t, int64(1), s.FilesFailed)
	assert.Equal(t, int64(1024), s.BytesCopied)
	assert.GreaterOrEqual(t, s.Elapsed, time.Duration(0))
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for j := 0; j < 10; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				c.AddFilesCopied(1)
				c.AddBytesCopied(10)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(1000), s.FilesCopied)
	assert.Equal(t, int64(10000), s.BytesCopied)
}

func TestSnapshotString(t *testing.T) {
	c := NewCollector()
	c.AddFilesScanned(2)
	c.AddFilesCopied(1)
	assert.Contains(t, c.Snapshot().String(), "scanned=2")
	assert.Contains(t, c.Snapshot().String(), "copied=1")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1024*1024+512*1024))
	assert.Equal(t, "1.0 GiB", FormatBytes(1024*1024*1024))
}
