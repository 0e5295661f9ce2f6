package ui

import "github.com/mqltools/mqlgather/internal/event"

// Event is the engine's event type; re-exported for presenter signatures.
type Event = event.Event

// Re-export event types for convenience.
const (
	SeedStarted    = event.SeedStarted
	SeedComplete   = event.SeedComplete
	ScanStarted    = event.ScanStarted
	ScanComplete   = event.ScanComplete
	FileHashed     = event.FileHashed
	FileUnreadable = event.FileUnreadable
	FileCopied     = event.FileCopied
	FileSkipped    = event.FileSkipped
	FileRenamed    = event.FileRenamed
	FileFailed     = event.FileFailed
	ReportWritten  = event.ReportWritten
)
