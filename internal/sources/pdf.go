package sources

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
	"github.com/ledongthuc/pdf"
)

// cellGap is the horizontal distance, in points, that separates two cells
// on the same text row.
const cellGap = 6.0

// TextRun is a positioned piece of text on one row of a page.
type TextRun struct {
	X, W float64
	S    string
}

// ReadPDF extracts the text layer of a PDF and any row-grid tables on its
// pages. A PDF with no text layer is unreadable.
func ReadPDF(ctx context.Context, path string) (doc *Document, err error) {
	log := logger.FromContext(ctx)
	name := filepath.Base(path)

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = domain.UnreadableSource(fmt.Errorf("%v", r), "Error reading PDF")
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, domain.UnreadableSource(err, "Error reading PDF")
	}
	defer f.Close()

	doc = &Document{Name: name, Kind: KindPDF}

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, domain.UnreadableSource(err, "Error reading PDF")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, domain.UnreadableSource(err, "Error reading PDF")
	}
	doc.Text = strings.TrimSpace(buf.String())
	if doc.Text == "" {
		return nil, domain.UnreadableSource(nil, "Could not extract text from PDF")
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ReadPDF: %w", err)
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			log.Warn().Err(err).Str("source", name).Int("page", i).Msg("Skipping page layout")
			continue
		}

		lines := make([][]Cell, 0, len(rows))
		for _, row := range rows {
			runs := make([]TextRun, 0, len(row.Content))
			for _, t := range row.Content {
				runs = append(runs, TextRun{X: t.X, W: t.W, S: t.S})
			}
			lines = append(lines, CellsFromRuns(runs))
		}
		doc.Tables = append(doc.Tables, TablesFromRows(fmt.Sprintf("%s page %d", name, i), AlignRows(lines))...)
	}

	log.Debug().Str("source", name).Int("pages", r.NumPage()).Int("tables", len(doc.Tables)).Msg("PDF parsed")
	return doc, nil
}

// Cell is text from one or more runs together with its horizontal extent.
type Cell struct {
	Text   string
	X0, X1 float64
}

// CellsFromRuns joins runs into cells, splitting wherever the gap to the
// next run exceeds cellGap.
func CellsFromRuns(runs []TextRun) []Cell {
	if len(runs) == 0 {
		return nil
	}
	sorted := make([]TextRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells []Cell
		cur   strings.Builder
		start = sorted[0].X
		end   = sorted[0].X
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			cells = append(cells, Cell{Text: s, X0: start, X1: end})
		}
		cur.Reset()
	}
	for _, run := range sorted {
		if run.X-end > cellGap {
			flush()
			start = run.X
		}
		cur.WriteString(run.S)
		if e := run.X + run.W; e > end {
			end = e
		}
	}
	flush()
	return cells
}

// AlignRows turns positioned rows into a grid TablesFromRows can group.
// Within each run of rows with two or more cells, the row with the most
// cells among the first few defines the columns; every row of the run is
// laid out against those columns by horizontal position, with "" where a
// row has nothing. Rows with fewer than two cells pass through unchanged.
func AlignRows(rows [][]Cell) [][]string {
	out := make([][]string, len(rows))
	for i := 0; i < len(rows); {
		if len(rows[i]) < 2 {
			out[i] = cellTexts(rows[i])
			i++
			continue
		}
		j := i
		for j < len(rows) && len(rows[j]) >= 2 {
			j++
		}
		group := rows[i:j]
		anchor := group[0]
		for _, row := range group[:min(len(group), tabular.HeaderScanDepth+1)] {
			if len(row) > len(anchor) {
				anchor = row
			}
		}
		for k, row := range group {
			out[i+k] = alignCells(anchor, row)
		}
		i = j
	}
	return out
}

// alignCells places each cell of row in the anchor column it overlaps most.
// Column boundaries sit halfway between neighbouring anchor cells, so every
// position belongs to exactly one column. Cells landing in the same column
// are joined with a space.
func alignCells(anchor, row []Cell) []string {
	n := len(anchor)
	lo := make([]float64, n)
	hi := make([]float64, n)
	lo[0] = math.Inf(-1)
	hi[n-1] = math.Inf(1)
	for c := 0; c < n-1; c++ {
		mid := (anchor[c].X1 + anchor[c+1].X0) / 2
		hi[c] = mid
		lo[c+1] = mid
	}

	out := make([]string, n)
	for _, cell := range row {
		col, best := -1, 0.0
		for c := 0; c < n; c++ {
			if ov := math.Min(cell.X1, hi[c]) - math.Max(cell.X0, lo[c]); ov > best {
				col, best = c, ov
			}
		}
		if col < 0 {
			centre := (cell.X0 + cell.X1) / 2
			for c := 0; c < n; c++ {
				if centre >= lo[c] && centre < hi[c] {
					col = c
					break
				}
			}
		}
		if col < 0 {
			continue
		}
		if out[col] == "" {
			out[col] = cell.Text
		} else {
			out[col] += " " + cell.Text
		}
	}
	return out
}

func cellTexts(cells []Cell) []string {
	if cells == nil {
		return nil
	}
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.Text
	}
	return texts
}

// TablesFromRows groups consecutive rows of two or more cells into tables.
// The first row of each group is its header; a row with fewer than two
// cells ends the group.
func TablesFromRows(name string, rows [][]string) []tabular.Table {
	var (
		tables []tabular.Table
		cur    *tabular.Table
	)
	closeTable := func() {
		if cur != nil && len(cur.Rows) > 0 {
			cur.Name = fmt.Sprintf("%s table %d", name, len(tables)+1)
			tables = append(tables, *cur)
		}
		cur = nil
	}

	for _, row := range rows {
		if len(row) < 2 {
			closeTable()
			continue
		}
		if cur == nil {
			cur = &tabular.Table{Header: row}
			continue
		}
		cur.Rows = append(cur.Rows, row)
	}
	closeTable()
	return tables
}
