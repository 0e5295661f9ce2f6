// Package report renders the run's authoritative record into the JSON
// (and optional CSV) documents consumed by downstream tooling. Field
// names and array ordering are stable across runs.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mqltools/mqlgather/internal/engine"
	"github.com/mqltools/mqlgather/internal/meta"
	"github.com/mqltools/mqlgather/internal/rules"
)

// timeLayout matches the report's human-readable timestamps.
const timeLayout = "2006-01-02 15:04:05"

// Record is one manifest entry enriched with filesystem and embedded
// metadata.
type Record struct {
	Name         string `json:"name"`
	Extension    string `json:"extension"`
	IsSrc        bool   `json:"is_src"`
	FileSize     int64  `json:"file_size"`
	TimeModified string `json:"time_modified"`
	meta.Details
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Document is the full run report.
type Document struct {
	TimeCompleted string   `json:"time_completed"`
	TotalFiles    int      `json:"total_files"`
	ChecksumAlgo  string   `json:"checksum_algo"`
	SearchPath    string   `json:"search_path"`
	SavePath      string   `json:"save_path"`
	Extensions    []string `json:"extensions"`
	GitPaths      []string `json:"git_paths"`
	DiffFiles     []string `json:"diff_files"`
	Manifest      []Record `json:"manifest"`
}

// Builder assembles a Document from a finished run.
type Builder struct {
	SearchPath string
	SavePath   string
	Extensions []string
	DumpSource bool
	Now        func() time.Time // nil means time.Now
}

// Build walks the manifest (sorted by destination) and stats each placed
// file; entries whose destination vanished are dropped with a warning so
// the report reflects exactly what is present at completion.
func (b Builder) Build(m *engine.Manifest, diffs []string) Document {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	doc := Document{
		TimeCompleted: now().Format(timeLayout),
		ChecksumAlgo:  engine.Algo,
		SearchPath:    b.SearchPath,
		SavePath:      b.SavePath,
		Extensions:    emptyNotNil(b.Extensions),
		GitPaths:      emptyNotNil(m.VCSRoots()),
		DiffFiles:     emptyNotNil(diffs),
		Manifest:      []Record{},
	}

	for _, entry := range m.Entries() {
		rec, ok := b.record(entry)
		if !ok {
			continue
		}
		doc.Manifest = append(doc.Manifest, rec)
	}
	doc.TotalFiles = len(doc.Manifest)
	return doc
}

func (b Builder) record(entry engine.ManifestEntry) (Record, bool) {
	info, err := os.Stat(entry.Dest)
	if err != nil {
		slog.Warn("report: manifest entry missing on disk", "path", entry.Dest, "error", err)
		return Record{}, false
	}

	ext := filepath.Ext(entry.Dest)
	return Record{
		Name:         info.Name(),
		Extension:    ext,
		IsSrc:        rules.IsSrc(ext),
		FileSize:     info.Size(),
		TimeModified: info.ModTime().Format(timeLayout),
		Details:      meta.Extract(entry.Dest, ext, b.DumpSource),
		Path:         entry.Dest,
		Checksum:     entry.Fingerprint.String(),
	}, true
}

// WriteJSON writes the document to path with 4-space indentation.
func (d Document) WriteJSON(path string) error {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes the manifest as a flat table. Embedded source text is
// never included.
func (d Document) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"name", "extension", "is_src", "file_size", "time_modified",
		"copyright", "version", "link", "encoding", "path", "checksum",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range d.Manifest {
		row := []string{
			rec.Name,
			rec.Extension,
			strconv.FormatBool(rec.IsSrc),
			strconv.FormatInt(rec.FileSize, 10),
			rec.TimeModified,
			deref(rec.Copyright),
			deref(rec.Version),
			deref(rec.Link),
			deref(rec.Encoding),
			rec.Path,
			rec.Checksum,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
