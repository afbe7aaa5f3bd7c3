package export

import (
	"encoding/json"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

// envelope is the JSON export document: run metadata, aggregate statistics,
// then the record list sorted by address.
type envelope struct {
	Meta       Meta              `json:"meta"`
	Statistics extract.Stats     `json:"statistics"`
	Emails     []*extract.Record `json:"emails"`
}

// writeJSON writes the metadata envelope plus all records.
func writeJSON(path string, records map[string]*extract.Record, meta Meta) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc := envelope{
		Meta:       meta,
		Statistics: extract.Summarize(records),
		Emails:     extract.SortedByAddress(records),
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}
