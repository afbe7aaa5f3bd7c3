package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	zderrors "github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

func testRecords() map[string]*extract.Record {
	return map[string]*extract.Record{
		"a@x.com": {
			Address:   "a@x.com",
			TicketIDs: []int64{1, 2},
			Count:     2,
			FirstSeen: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
			LastSeen:  time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
			Requester: true,
		},
		"b@x.com": {
			Address:   "b@x.com",
			TicketIDs: []int64{1},
			Count:     1,
			FirstSeen: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
			LastSeen:  time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
			CC:        true,
		},
	}
}

func testMeta() Meta {
	return Meta{
		ExportID:   "test-export",
		ExportedAt: time.Date(2026, 8, 29, 12, 30, 45, 0, time.UTC),
		Subdomain:  "testaccount",
		GroupScope: "42",
		Status:     "open",
		DaysBack:   30,
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"csv", "json", "txt", "excel"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseFormat("pdf"); !zderrors.Is(err, zderrors.ErrCodeInvalidInput) {
		t.Errorf("ParseFormat(pdf) = %v, want INVALID_INPUT", err)
	}
}

func TestExport_FilenameCarriesScope(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path, err := e.Export(testRecords(), testMeta(), FormatCSV)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	want := "zendesk_emails_42_20260829_123045.csv"
	if filepath.Base(path) != want {
		t.Errorf("filename = %s, want %s", filepath.Base(path), want)
	}
}

func TestExport_CSV(t *testing.T) {
	e, _ := NewExporter(t.TempDir())
	path, err := e.Export(testRecords(), testMeta(), FormatCSV)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if strings.Join(rows[0], ",") != "email,ticket_count,type,first_seen,last_seen,ticket_ids" {
		t.Errorf("header = %v", rows[0])
	}
	// Sorted by address
	if rows[1][0] != "a@x.com" || rows[2][0] != "b@x.com" {
		t.Errorf("row order = %v, %v", rows[1][0], rows[2][0])
	}
	if rows[1][1] != "2" || rows[1][2] != "requester" || rows[1][5] != "1,2" {
		t.Errorf("record row = %v", rows[1])
	}
}

func TestExport_JSONEnvelope(t *testing.T) {
	e, _ := NewExporter(t.TempDir())
	path, err := e.Export(testRecords(), testMeta(), FormatJSON)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Meta       Meta          `json:"meta"`
		Statistics extract.Stats `json:"statistics"`
		Emails     []struct {
			Address string `json:"email"`
			Count   int    `json:"ticket_count"`
		} `json:"emails"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Meta.ExportID != "test-export" || doc.Meta.GroupScope != "42" {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if doc.Statistics.TotalUniqueEmails != 2 || doc.Statistics.TotalTickets != 2 {
		t.Errorf("stats = %+v", doc.Statistics)
	}
	if len(doc.Emails) != 2 || doc.Emails[0].Address != "a@x.com" {
		t.Errorf("emails = %+v", doc.Emails)
	}
}

func TestExport_TXT(t *testing.T) {
	e, _ := NewExporter(t.TempDir())
	path, err := e.Export(testRecords(), testMeta(), FormatTXT)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "# Total unique emails: 2") {
		t.Errorf("missing header in:\n%s", text)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if lines[len(lines)-2] != "a@x.com" || lines[len(lines)-1] != "b@x.com" {
		t.Errorf("address lines = %v", lines)
	}
}

func TestExport_ExcelSheets(t *testing.T) {
	e, _ := NewExporter(t.TempDir())
	path, err := e.Export(testRecords(), testMeta(), FormatExcel)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{"Emails", "Statistics", "Top Requesters"} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("sheet %q missing (have %v)", want, sheets)
		}
	}

	// Emails sheet sorted by ticket count descending
	rows, err := f.GetRows("Emails")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "a@x.com" {
		t.Errorf("emails sheet rows = %v", rows)
	}

	// Top Requesters excludes CC-only addresses
	reqRows, err := f.GetRows("Top Requesters")
	if err != nil {
		t.Fatal(err)
	}
	if len(reqRows) != 2 || reqRows[1][0] != "a@x.com" {
		t.Errorf("requester sheet rows = %v", reqRows)
	}
}

func TestNewExporter_UnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatal(err)
	}
	_, err := NewExporter(filepath.Join(parent, "out"))
	if !zderrors.Is(err, zderrors.ErrCodeWrite) {
		t.Errorf("got %v, want WRITE_ERROR", err)
	}
}
