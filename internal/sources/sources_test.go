package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"statement.csv", KindCSV, true},
		{"Statement.CSV", KindCSV, true},
		{"jan.xlsx", KindXLSX, true},
		{"old.xls", KindXLS, true},
		{"bank.PDF", KindPDF, true},
		{"archive.tar.gz", "", false},
		{"noext", "", false},
		{"csv", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindFromFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupportedList(t *testing.T) {
	assert.Equal(t, "csv, pdf, xls, xlsx", SupportedList())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "stmt.csv", "\ufeffDate,Description,Amount,Type\n"+
		"2024-01-15,\"Coffee, large\",4.50,Debit\n"+
		"2024-01-16,Short row\n")

	got, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "stmt.csv", got.Name)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Type"}, got.Header)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []string{"2024-01-15", "Coffee, large", "4.50", "Debit"}, got.Rows[0])
	assert.Equal(t, []string{"2024-01-16", "Short row"}, got.Rows[1])
}

func TestReadCSV_Empty(t *testing.T) {
	got, err := readCSV(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, got.Header)
	assert.Empty(t, got.Rows)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, domain.ErrUnreadableSource)
}

func TestReadWorkbook_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stmt.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "Description", "Amount", "Type"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2024-01-15", "Salary", "2500", "Credit"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadWorkbook(path, KindXLSX)
	require.NoError(t, err)
	assert.Equal(t, "stmt.xlsx:Sheet1", got.Name)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Type"}, got.Header)
	assert.Equal(t, [][]string{{"2024-01-15", "Salary", "2500", "Credit"}}, got.Rows)
}

func TestReadWorkbook_Corrupt(t *testing.T) {
	path := writeFile(t, "broken.xlsx", "definitely not a zip")
	_, err := ReadWorkbook(path, KindXLSX)
	assert.ErrorIs(t, err, domain.ErrUnreadableSource)
}

func TestRead_CSVDocument(t *testing.T) {
	path := writeFile(t, "doc.csv", "Date,Description,Amount,Type\n2024-01-15,Coffee,4.50,Debit\n")

	doc, err := Read(context.Background(), path, KindCSV)
	require.NoError(t, err)
	assert.Equal(t, KindCSV, doc.Kind)
	assert.Equal(t, "doc.csv", doc.Name)
	require.Len(t, doc.Tables, 1)
	assert.Empty(t, doc.Text)
}

func TestRead_InvalidPDF(t *testing.T) {
	path := writeFile(t, "fake.pdf", "this is plain text")
	_, err := Read(context.Background(), path, KindPDF)
	assert.ErrorIs(t, err, domain.ErrUnreadableSource)
}

func TestCellsFromRuns(t *testing.T) {
	runs := []TextRun{
		{X: 120, W: 30, S: "Coffee"},
		{X: 10, W: 50, S: "15/01/2024"},
		{X: 152, W: 20, S: " Shop"},
		{X: 300, W: 20, S: "4.50"},
	}
	assert.Equal(t, []Cell{
		{Text: "15/01/2024", X0: 10, X1: 60},
		{Text: "Coffee Shop", X0: 120, X1: 172},
		{Text: "4.50", X0: 300, X1: 320},
	}, CellsFromRuns(runs))
	assert.Nil(t, CellsFromRuns(nil))
}

// statementLines lays out a Date|Description|Debit|Credit|Balance page with
// right-aligned money columns, as bank statements print them.
func statementLines() [][]Cell {
	line := func(runs ...TextRun) []Cell { return CellsFromRuns(runs) }
	return [][]Cell{
		line(TextRun{X: 10, W: 80, S: "Barclays Bank UK"}),
		line(
			TextRun{X: 10, W: 25, S: "Date"},
			TextRun{X: 100, W: 60, S: "Description"},
			TextRun{X: 300, W: 30, S: "Debit"},
			TextRun{X: 400, W: 32, S: "Credit"},
			TextRun{X: 500, W: 40, S: "Balance"},
		),
		line(
			TextRun{X: 10, W: 50, S: "2024-01-05"},
			TextRun{X: 100, W: 40, S: "Tesco"},
			TextRun{X: 305, W: 25, S: "42.10"},
			TextRun{X: 505, W: 35, S: "957.90"},
		),
		line(
			TextRun{X: 10, W: 50, S: "2024-01-06"},
			TextRun{X: 100, W: 35, S: "Salary"},
			TextRun{X: 390, W: 42, S: "1,000.00"},
			TextRun{X: 497, W: 43, S: "1,957.90"},
		),
		line(
			TextRun{X: 10, W: 50, S: "2024-01-07"},
			TextRun{X: 100, W: 90, S: "Card payment to"},
			TextRun{X: 200, W: 30, S: "Shell"},
			TextRun{X: 310, W: 20, S: "9.99"},
		),
	}
}

func TestAlignRows_SparseMoneyColumns(t *testing.T) {
	got := AlignRows(statementLines())

	assert.Equal(t, [][]string{
		{"Barclays Bank UK"},
		{"Date", "Description", "Debit", "Credit", "Balance"},
		{"2024-01-05", "Tesco", "42.10", "", "957.90"},
		{"2024-01-06", "Salary", "", "1,000.00", "1,957.90"},
		{"2024-01-07", "Card payment to Shell", "9.99", "", ""},
	}, got)
}

func TestAlignRows_TitleRowAboveHeader(t *testing.T) {
	lines := [][]Cell{
		{{Text: "Account 1234", X0: 10, X1: 80}, {Text: "Page 1", X0: 480, X1: 520}},
		{{Text: "Date", X0: 10, X1: 35}, {Text: "Details", X0: 100, X1: 140}, {Text: "Money out", X0: 300, X1: 350}, {Text: "Money in", X0: 400, X1: 445}},
		{{Text: "2024-01-06", X0: 10, X1: 60}, {Text: "Refund", X0: 100, X1: 135}, {Text: "12.00", X0: 415, X1: 445}},
	}

	got := AlignRows(lines)
	assert.Equal(t, []string{"Account 1234", "", "", "Page 1"}, got[0])
	assert.Equal(t, []string{"2024-01-06", "Refund", "", "12.00"}, got[2])
}

func TestAlignRows_ThenTables(t *testing.T) {
	tables := TablesFromRows("stmt.pdf page 1", AlignRows(statementLines()))
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Date", "Description", "Debit", "Credit", "Balance"}, tables[0].Header)
	require.Len(t, tables[0].Rows, 3)
	for _, row := range tables[0].Rows {
		assert.Len(t, row, len(tables[0].Header))
	}
}

func TestTablesFromRows(t *testing.T) {
	rows := [][]string{
		{"Barclays Bank"},
		{"Date", "Description", "Money out", "Money in"},
		{"15/01/2024", "Coffee", "4.50", ""},
		{"16/01/2024", "Salary", "", "2500"},
		{"Continued overleaf"},
		{"Header only", "table"},
		nil,
		{"Date", "Details", "Amount"},
		{"17/01/2024", "Rent", "-900"},
	}

	got := TablesFromRows("stmt.pdf page 1", rows)
	require.Len(t, got, 2)

	assert.Equal(t, tabular.Table{
		Name:   "stmt.pdf page 1 table 1",
		Header: []string{"Date", "Description", "Money out", "Money in"},
		Rows: [][]string{
			{"15/01/2024", "Coffee", "4.50", ""},
			{"16/01/2024", "Salary", "", "2500"},
		},
	}, got[0])
	assert.Equal(t, "stmt.pdf page 1 table 2", got[1].Name)
	assert.Equal(t, []string{"Date", "Details", "Amount"}, got[1].Header)
}
