package export

import (
	"encoding/csv"
	"strconv"
	"time"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

// csvHeader is the fixed CSV column set.
var csvHeader = []string{"email", "ticket_count", "type", "first_seen", "last_seen", "ticket_ids"}

// writeCSV writes one row per record, sorted by address.
func writeCSV(path string, records map[string]*extract.Record) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}

	for _, r := range extract.SortedByAddress(records) {
		row := []string{
			r.Address,
			strconv.Itoa(r.Count),
			r.PrimaryType(),
			formatTime(r.FirstSeen),
			formatTime(r.LastSeen),
			r.SampleTicketIDs(sampleTicketIDLimit),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
