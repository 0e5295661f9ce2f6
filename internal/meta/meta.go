// Package meta extracts embedded MQL source properties for report
// records. It is a collaborator of the engine, not part of the dedup core:
// the engine only merges its output into the report.
package meta

import (
	"encoding/json"
	"os"
	"regexp"

	"golang.org/x/net/html/charset"

	"github.com/mqltools/mqlgather/internal/rules"
)

// Details holds the optional per-file metadata fields. Nil means the
// field was absent or the file could not be decoded.
type Details struct {
	Copyright *string `json:"copyright"`
	Version   *string `json:"version"`
	Link      *string `json:"link"`
	Encoding  *string `json:"encoding"`
	Text      *string `json:"file_text,omitempty"`
}

var (
	reCopyright = regexp.MustCompile(`(?m)^#property\s+copyright\s*"(.*?)"\s*$`)
	reVersion   = regexp.MustCompile(`(?m)^#property\s+version\s*"(.*?)"\s*$`)
	reLink      = regexp.MustCompile(`(?m)^#property\s+link\s*"(.*?)"\s*$`)
)

// maxExtractSize caps how much of a file is read for extraction; MQL
// sources are small and property headers sit at the top.
const maxExtractSize = 4 * 1024 * 1024

// Extract returns the embedded properties for the file at path. Project
// files (.mqproj) are JSON; source files are decoded from their detected
// encoding and matched line-wise. Any failure yields zero Details:
// extraction is best effort and never blocks a run.
func Extract(path, ext string, dumpText bool) Details {
	switch {
	case ext == ".mqproj":
		return extractProject(path)
	case rules.IsSrc(ext):
		return extractSource(path, dumpText)
	default:
		return Details{}
	}
}

func extractProject(path string) Details {
	data, err := os.ReadFile(path)
	if err != nil {
		return Details{}
	}
	var doc struct {
		Copyright *string `json:"copyright"`
		Version   *string `json:"version"`
		Link      *string `json:"link"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Details{}
	}
	return Details{Copyright: doc.Copyright, Version: doc.Version, Link: doc.Link}
}

func extractSource(path string, dumpText bool) Details {
	raw, err := readCapped(path)
	if err != nil {
		return Details{}
	}

	enc, name, _ := charset.DetermineEncoding(raw, "")
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return Details{Encoding: &name}
	}
	text := string(decoded)

	d := Details{
		Copyright: match(reCopyright, text),
		Version:   match(reVersion, text),
		Link:      match(reLink, text),
		Encoding:  &name,
	}
	if dumpText {
		d.Text = &text
	}
	return d
}

func readCapped(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxExtractSize {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf := make([]byte, maxExtractSize)
		n, err := f.Read(buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
	return os.ReadFile(path)
}

func match(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}
