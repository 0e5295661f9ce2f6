package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mqltools/mqlgather/internal/stats"
)

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "-1,234", FormatCount(-1234))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(200*time.Millisecond))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 05s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 01m 05s", FormatDuration(time.Hour+65*time.Second))
}

func TestCompletionSummary(t *testing.T) {
	snap := stats.Snapshot{
		FilesCopied: 1200,
		BytesCopied: 2048,
		Elapsed:     3 * time.Second,
	}
	assert.Equal(t, "placed 1,200 files (2.0 KiB) in 3s", CompletionSummary(snap))
}

func TestCompletionSummaryWithExtras(t *testing.T) {
	snap := stats.Snapshot{
		FilesCopied:     10,
		BytesCopied:     100,
		Elapsed:         time.Second,
		FilesSkipped:    5,
		FilesRenamed:    2,
		FilesUnreadable: 1,
		FilesFailed:     3,
	}
	got := CompletionSummary(snap)
	assert.Contains(t, got, "5 already present")
	assert.Contains(t, got, "2 renamed")
	assert.Contains(t, got, "1 unreadable")
	assert.Contains(t, got, "3 failed")
}
