package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

// Sheet names in the XLSX workbook.
const (
	sheetEmails     = "Emails"
	sheetStatistics = "Statistics"
	sheetRequesters = "Top Requesters"
)

// writeExcel writes the three-sheet workbook: all records, summary
// statistics, and the top requesters by ticket count.
func writeExcel(path string, records map[string]*extract.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetEmails); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "build workbook")
	}
	if _, err := f.NewSheet(sheetStatistics); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "build workbook")
	}
	if _, err := f.NewSheet(sheetRequesters); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "build workbook")
	}

	if err := fillEmailSheet(f, records); err != nil {
		return err
	}
	if err := fillStatsSheet(f, extract.Summarize(records)); err != nil {
		return err
	}
	if err := fillRequesterSheet(f, records); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}

func fillEmailSheet(f *excelize.File, records map[string]*extract.Record) error {
	header := []any{"Email", "Ticket Count", "Type", "First Seen", "Last Seen", "Is Requester", "Is CC", "From Comment"}
	if err := setRow(f, sheetEmails, 1, header); err != nil {
		return err
	}
	for i, r := range extract.TopByTickets(records, 0) {
		row := []any{
			r.Address,
			r.Count,
			r.PrimaryType(),
			formatTime(r.FirstSeen),
			formatTime(r.LastSeen),
			r.Requester,
			r.CC,
			r.Comment,
		}
		if err := setRow(f, sheetEmails, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func fillStatsSheet(f *excelize.File, stats extract.Stats) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Total Unique Emails", stats.TotalUniqueEmails},
		{"Total Tickets", stats.TotalTickets},
		{"Requester Emails", stats.RequesterEmails},
		{"CC Emails", stats.CCEmails},
		{"Comment Emails", stats.CommentEmails},
		{"Avg Tickets per Email", stats.AvgTicketsPerEmail},
	}
	for i, row := range rows {
		if err := setRow(f, sheetStatistics, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func fillRequesterSheet(f *excelize.File, records map[string]*extract.Record) error {
	header := []any{"Email", "Ticket Count", "First Seen", "Last Seen"}
	if err := setRow(f, sheetRequesters, 1, header); err != nil {
		return err
	}
	for i, r := range extract.TopRequesters(records, topRequesterLimit) {
		row := []any{r.Address, r.Count, formatTime(r.FirstSeen), formatTime(r.LastSeen)}
		if err := setRow(f, sheetRequesters, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "build workbook")
	}
	return nil
}
