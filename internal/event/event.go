// Package event defines the progress events the engine emits while
// seeding, scanning and placing files.
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	SeedStarted Type = iota + 1
	SeedComplete
	ScanStarted
	ScanComplete
	FileHashed
	FileUnreadable
	FileCopied
	FileSkipped
	FileRenamed
	FileFailed
	ReportWritten
)

var typeNames = [...]string{
	SeedStarted:    "SeedStarted",
	SeedComplete:   "SeedComplete",
	ScanStarted:    "ScanStarted",
	ScanComplete:   "ScanComplete",
	FileHashed:     "FileHashed",
	FileUnreadable: "FileUnreadable",
	FileCopied:     "FileCopied",
	FileSkipped:    "FileSkipped",
	FileRenamed:    "FileRenamed",
	FileFailed:     "FileFailed",
	ReportWritten:  "ReportWritten",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // source path, where applicable
	Dest      string // destination path, where applicable
	Size      int64
	Total     int64 // candidate count (ScanComplete) or seeded count (SeedComplete)
	Error     error
}

// Emit sends e on ch without blocking; events are advisory and a slow
// consumer must never stall the engine.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
