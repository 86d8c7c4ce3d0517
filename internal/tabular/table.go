// Package tabular turns header-plus-rows tables into canonical transactions.
//
// Strict mode expects the fixed Date,Description,Amount,Type layout. Flexible
// mode resolves bank-specific headers through synonyms and accepts either a
// signed amount column or separate debit and credit columns.
package tabular

import "strings"

// Table is a rectangular-ish grid of cells with a header row.
// Rows may be shorter than Header; missing cells read as "".
type Table struct {
	Name   string // sheet name, "page 2 table 1", file name...
	Header []string
	Rows   [][]string
}

// cell returns row[i] trimmed, or "" when the row is short or i < 0.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowData maps header names to the raw cell values of a row.
func rowData(header, row []string) map[string]any {
	data := make(map[string]any, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(row) {
			data[h] = row[i]
		} else {
			data[h] = ""
		}
	}
	return data
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}
