// Package sources reads statement files into tables and text for the
// normalizer and the extraction adapter.
package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
)

// Kind is a supported statement file format.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindPDF  Kind = "pdf"
	KindXLS  Kind = "xls"
	KindXLSX Kind = "xlsx"
)

// Supported lists the accepted kinds in display order.
var Supported = []Kind{KindCSV, KindPDF, KindXLS, KindXLSX}

// SupportedList renders Supported for user-facing messages, e.g. "csv, pdf, xls, xlsx".
func SupportedList() string {
	names := make([]string, len(Supported))
	for i, k := range Supported {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// KindFromFilename detects the format from the file extension, case-insensitively.
func KindFromFilename(name string) (Kind, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, k := range Supported {
		if ext == string(k) {
			return k, true
		}
	}
	return "", false
}

// Tabular reports whether the kind always yields exactly one table.
func (k Kind) Tabular() bool {
	return k == KindCSV || k == KindXLS || k == KindXLSX
}

// Document is everything a source yields. Spreadsheets fill Tables with one
// table; PDFs fill Text and whatever row-grid tables their layout allows.
type Document struct {
	Name   string
	Kind   Kind
	Tables []tabular.Table
	Text   string
}

// Read opens path as kind.
func Read(ctx context.Context, path string, kind Kind) (*Document, error) {
	log := logger.FromContext(ctx)
	name := filepath.Base(path)

	doc := &Document{Name: name, Kind: kind}
	switch kind {
	case KindCSV:
		t, err := ReadCSV(path)
		if err != nil {
			return nil, err
		}
		doc.Tables = []tabular.Table{t}
	case KindXLS, KindXLSX:
		t, err := ReadWorkbook(path, kind)
		if err != nil {
			return nil, err
		}
		doc.Tables = []tabular.Table{t}
	case KindPDF:
		pdfDoc, err := ReadPDF(ctx, path)
		if err != nil {
			return nil, err
		}
		doc.Tables = pdfDoc.Tables
		doc.Text = pdfDoc.Text
	default:
		return nil, fmt.Errorf("Read: unsupported kind %q", kind)
	}

	log.Debug().
		Str("source", name).
		Str("kind", string(kind)).
		Int("tables", len(doc.Tables)).
		Int("text_len", len(doc.Text)).
		Msg("Source read")
	return doc, nil
}
