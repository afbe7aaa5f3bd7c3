package export

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/alderacgit/ZenDeskExport/pkg/errors"
	"github.com/alderacgit/ZenDeskExport/pkg/extract"
)

// writeTXT writes a commented header followed by one address per line.
func writeTXT(path string, records map[string]*extract.Record, meta Meta) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Email Export - %s\n", meta.ExportedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "# Total unique emails: %d\n", len(records))
	fmt.Fprintf(w, "#%s\n\n", strings.Repeat("=", 50))

	for _, r := range extract.SortedByAddress(records) {
		fmt.Fprintln(w, r.Address)
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}
