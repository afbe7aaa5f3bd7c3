// Package export serializes aggregated email records into the supported
// output artifacts: CSV, JSON, plain text, and a multi-sheet XLSX workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

// Format selects the output artifact type.
type Format string

// Supported output formats.
const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTXT   Format = "txt"
	FormatExcel Format = "excel"
)

// sampleTicketIDLimit caps how many ticket ids appear per CSV row.
const sampleTicketIDLimit = 10

// topRequesterLimit caps the Top Requesters sheet.
const topRequesterLimit = 50

// ParseFormat validates a format string from the CLI.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON, FormatTXT, FormatExcel:
		return Format(s), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (expected csv, json, txt, or excel)", s)
	}
}

// extension returns the file extension for the format.
func (f Format) extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// Meta describes the run that produced an export; it is embedded in the
// JSON envelope and used to build the output filename.
type Meta struct {
	ExportID   string    `json:"export_id"`
	ExportedAt time.Time `json:"exported_at"`
	Subdomain  string    `json:"subdomain"`
	GroupScope string    `json:"group"` // group id or "all"
	Status     string    `json:"status"`
	DaysBack   int       `json:"days_back"`
}

// Exporter writes export artifacts into a target directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter for dir, creating the directory if needed.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "create output directory %s", dir)
	}
	return &Exporter{dir: dir}, nil
}

// Export writes the records in the chosen format and returns the path of
// the written file.
func (e *Exporter) Export(records map[string]*extract.Record, meta Meta, format Format) (string, error) {
	scope := meta.GroupScope
	if scope == "" {
		scope = "all"
	}
	name := fmt.Sprintf("zendesk_emails_%s_%s.%s", scope, meta.ExportedAt.Format("20060102_150405"), format.extension())
	path := filepath.Join(e.dir, name)

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(path, records)
	case FormatJSON:
		err = writeJSON(path, records, meta)
	case FormatTXT:
		err = writeTXT(path, records, meta)
	case FormatExcel:
		err = writeExcel(path, records)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// create opens the output file, mapping failures onto WRITE_ERROR.
func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "create %s", path)
	}
	return f, nil
}
