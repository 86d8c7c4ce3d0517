package domain

import "fmt"

// WarningKind tells row-level problems apart.
type WarningKind string

const (
	// WarningRowSkipped means the row was dropped and the batch continued.
	WarningRowSkipped WarningKind = "row_skipped"
	// WarningDateDefaulted means the row was kept with today's date.
	WarningDateDefaulted WarningKind = "date_defaulted"
)

// Warning is a non-fatal, row-level diagnostic.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Source string      `json:"source,omitempty"`
	Row    int         `json:"row"`
	Reason string      `json:"reason"`
}

// RowSkipped builds a skip warning. Row is 1-based within its source.
func RowSkipped(source string, row int, format string, args ...any) Warning {
	return Warning{Kind: WarningRowSkipped, Source: source, Row: row, Reason: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	if w.Source != "" {
		return fmt.Sprintf("%s row %d: %s", w.Source, w.Row, w.Reason)
	}
	return fmt.Sprintf("row %d: %s", w.Row, w.Reason)
}

// Skipped counts the warnings that dropped a row.
func Skipped(ws []Warning) int {
	n := 0
	for _, w := range ws {
		if w.Kind == WarningRowSkipped {
			n++
		}
	}
	return n
}
