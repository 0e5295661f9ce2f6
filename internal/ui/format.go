package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mqltools/mqlgather/internal/stats"
)

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// CompletionSummary renders the end-of-run summary line.
func CompletionSummary(snap stats.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "placed %s files (%s) in %s",
		FormatCount(snap.FilesCopied),
		FormatBytes(snap.BytesCopied),
		FormatDuration(snap.Elapsed),
	)
	if snap.FilesSkipped > 0 {
		fmt.Fprintf(&b, ", %s already present", FormatCount(snap.FilesSkipped))
	}
	if snap.FilesRenamed > 0 {
		fmt.Fprintf(&b, ", %s renamed", FormatCount(snap.FilesRenamed))
	}
	if snap.FilesUnreadable > 0 {
		fmt.Fprintf(&b, ", %s unreadable", FormatCount(snap.FilesUnreadable))
	}
	if snap.FilesFailed > 0 {
		fmt.Fprintf(&b, ", %s failed", FormatCount(snap.FilesFailed))
	}
	return b.String()
}
