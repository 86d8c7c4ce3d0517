package sources

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
)

const utf8BOM = "\ufeff"

// ReadCSV reads a comma-separated file. The first record is the header;
// ragged rows are allowed. An empty file yields a table with no header.
func ReadCSV(path string) (tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return tabular.Table{}, domain.UnreadableSource(err, "Error reading file")
	}
	defer f.Close()

	return readCSV(f, filepath.Base(path))
}

func readCSV(r io.Reader, name string) (tabular.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	t := tabular.Table{Name: name}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return tabular.Table{}, domain.UnreadableSource(err, "Error reading file")
		}
		if t.Header == nil {
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
			}
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
