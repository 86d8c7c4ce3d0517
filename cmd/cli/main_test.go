package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementCSV = `Date,Description,Amount,Type
2024-01-01,Payroll Deposit,2500.00,Credit
2024-01-02,Starbucks Coffee,4.50,Debit
2024-01-03,Walmart Supercenter,120.00,Debit
bad-date,Broken row,10.00,Debit
`

type fakeFetcher struct {
	content string
	err     error
	dirs    []string
}

func (f *fakeFetcher) DownloadToFile(_ context.Context, _ string, dir string) (string, error) {
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(dir, "remote.csv")
	if err := os.WriteFile(path, []byte(f.content), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAnalyzeAll_IndependentInputs(t *testing.T) {
	good := writeFile(t, "jan.csv", statementCSV)
	badColumns := writeFile(t, "feb.csv", "Date,Description\n2024-02-01,x\n")
	unsupported := writeFile(t, "notes.txt", "hello")

	results := analyzeAll(context.Background(), pipeline.NewAnalyzer(), nil, []string{good, badColumns, unsupported}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, good, results[0].Input)
	assert.Empty(t, results[0].Error)
	require.NotNil(t, results[0].Report)
	assert.Equal(t, 3, results[0].Report.Count)

	assert.Contains(t, results[1].Error, "Missing required columns")
	assert.Nil(t, results[1].Report)

	assert.Contains(t, results[2].Error, "File type not allowed")
	assert.Equal(t, 2, failed(results))
}

func TestAnalyzeAll_GCSInput(t *testing.T) {
	fetcher := &fakeFetcher{content: statementCSV}

	results := analyzeAll(context.Background(), pipeline.NewAnalyzer(), fetcher, []string{"gs://bucket/statements/jan.csv"}, 1)

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 3, results[0].Report.Count)

	require.Len(t, fetcher.dirs, 1)
	_, err := os.Stat(fetcher.dirs[0])
	assert.True(t, os.IsNotExist(err), "temp dir should be removed")
}

func TestAnalyzeAll_GCSWithoutFetcher(t *testing.T) {
	results := analyzeAll(context.Background(), pipeline.NewAnalyzer(), nil, []string{"gs://bucket/jan.csv"}, 0)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "no storage client")
}

func TestAnalyzeAll_DownloadError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("object not found")}
	results := analyzeAll(context.Background(), pipeline.NewAnalyzer(), fetcher, []string{"gs://bucket/jan.csv"}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "object not found", results[0].Error)
}

func TestHasGCSInput(t *testing.T) {
	assert.True(t, hasGCSInput([]string{"a.csv", "gs://b/c.pdf"}))
	assert.False(t, hasGCSInput([]string{"a.csv", "b.xlsx"}))
}

func TestPrintResult(t *testing.T) {
	results := analyzeAll(context.Background(), pipeline.NewAnalyzer(), nil, []string{writeFile(t, "jan.csv", statementCSV)}, 1)

	var buf bytes.Buffer
	printResult(&buf, results[0])
	out := buf.String()

	assert.Contains(t, out, "Transactions: 3 (1 rows skipped)")
	assert.Contains(t, out, "Income:       2500.00")
	assert.Contains(t, out, "Expenses:     124.50")
	assert.Contains(t, out, "Groceries")
}

func TestPrintResult_Error(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, fileResult{Input: "x.csv", Error: "Failed to read file"})
	assert.Contains(t, buf.String(), "Error: Failed to read file")
}

func TestPrintInspection(t *testing.T) {
	warnings := []domain.Warning{domain.RowSkipped("jan.csv", 4, "invalid date %q", "bad-date")}
	report := pipeline.ValidationReport{
		Issues: []string{"Trans 2: Missing category"},
		Statistics: pipeline.ValidationStats{
			Transactions: 2,
			Debits:       1,
			Credits:      1,
			TotalDebits:  "4.50",
			TotalCredits: "2500.00",
			StartDate:    "2024-01-01",
			EndDate:      "2024-01-02",
		},
	}

	var buf bytes.Buffer
	printInspection(&buf, "jan.csv", warnings, report)
	out := buf.String()

	assert.Contains(t, out, "Row warnings (1):")
	assert.Contains(t, out, `jan.csv row 4: invalid date "bad-date"`)
	assert.Contains(t, out, "Date range:    2024-01-01 to 2024-01-02")
	assert.Contains(t, out, "Issues (1):")
	assert.Contains(t, out, "Trans 2: Missing category")
}

func TestPrintInspection_Clean(t *testing.T) {
	var buf bytes.Buffer
	printInspection(&buf, "jan.csv", nil, pipeline.ValidationReport{})
	assert.Contains(t, buf.String(), "No issues found.")
}
