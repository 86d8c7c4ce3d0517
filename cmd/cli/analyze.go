package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/analytics"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/gcsuploader"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/sources"
	"golang.org/x/sync/errgroup"
)

// FileAnalyzer is the part of pipeline.Analyzer the CLI needs.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string, kind sources.Kind) (*pipeline.Report, error)
}

// Fetcher copies a gs:// object to a local directory.
type Fetcher interface {
	DownloadToFile(ctx context.Context, gcsURI, dir string) (string, error)
}

// fileResult is the outcome for one input; exactly one of Report and Error is set.
type fileResult struct {
	Input  string           `json:"input"`
	Error  string           `json:"error,omitempty"`
	Report *pipeline.Report `json:"report,omitempty"`
}

func hasGCSInput(inputs []string) bool {
	for _, in := range inputs {
		if gcsuploader.IsGCSURI(in) {
			return true
		}
	}
	return false
}

// analyzeAll runs one independent pipeline per input, at most workers at a
// time. A failing input never stops the others. Results keep input order.
func analyzeAll(ctx context.Context, analyzer FileAnalyzer, fetcher Fetcher, inputs []string, workers int) []fileResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]fileResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, input := range inputs {
		g.Go(func() error {
			report, err := analyzeOne(ctx, analyzer, fetcher, input)
			results[i] = fileResult{Input: input, Report: report}
			if err != nil {
				results[i].Error = pipeline.ErrorMessage(err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func analyzeOne(ctx context.Context, analyzer FileAnalyzer, fetcher Fetcher, input string) (*pipeline.Report, error) {
	path := input
	if gcsuploader.IsGCSURI(input) {
		if fetcher == nil {
			return nil, fmt.Errorf("no storage client for %s", input)
		}
		dir, err := os.MkdirTemp("", "statement-*")
		if err != nil {
			return nil, fmt.Errorf("creating temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		path, err = fetcher.DownloadToFile(ctx, input, dir)
		if err != nil {
			return nil, err
		}
		log := logger.FromContext(ctx)
		log.Debug().Str("gcs_uri", input).Str("path", path).Msg("Downloaded statement")
	}

	kind, ok := sources.KindFromFilename(path)
	if !ok {
		return nil, fmt.Errorf("File type not allowed. Supported: %s", sources.SupportedList())
	}
	return analyzer.AnalyzeFile(ctx, path, kind)
}

func failed(results []fileResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}

func printResult(w io.Writer, r fileResult) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Input)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}

	res := r.Report.Analysis
	fmt.Fprintf(w, "Transactions: %d (%d rows skipped)\n", r.Report.Count, domain.Skipped(r.Report.Warnings))
	if res.Empty() {
		return
	}
	s := res.Summary
	fmt.Fprintf(w, "Period:       %s to %s\n", s.DateRange.Start, s.DateRange.End)
	fmt.Fprintf(w, "Income:       %.2f\n", s.TotalIncome)
	fmt.Fprintf(w, "Expenses:     %.2f\n", s.TotalExpenses)
	fmt.Fprintf(w, "Net:          %.2f\n", s.NetIncome)

	names := expenseCategoriesBySpend(res.ByCategory)
	if len(names) > 0 {
		fmt.Fprintln(w, "\nSpending by category:")
		for _, name := range names {
			c := res.ByCategory[name]
			fmt.Fprintf(w, "  %-16s %10.2f  %5.1f%%\n", name, c.Total, c.PercentageOfTotal)
		}
	}

	if len(res.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range res.Insights {
			fmt.Fprintf(w, "  [%s] %s: %s\n", in.Severity, in.Title, in.Message)
		}
	}
}

// expenseCategoriesBySpend orders expense categories by total, largest first.
func expenseCategoriesBySpend(cats map[string]analytics.CategoryStats) []string {
	names := make([]string, 0, len(cats))
	for name, c := range cats {
		if c.Type == analytics.KindExpense {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := cats[names[i]], cats[names[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return names[i] < names[j]
	})
	return names
}

func printInspection(w io.Writer, name string, warnings []domain.Warning, v pipeline.ValidationReport) {
	fmt.Fprintf(w, "\n=== %s ===\n", name)

	fmt.Fprintf(w, "\nRow warnings (%d):\n", len(warnings))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}

	st := v.Statistics
	fmt.Fprintln(w, "\nStatistics:")
	fmt.Fprintf(w, "  Transactions:  %d\n", st.Transactions)
	fmt.Fprintf(w, "  Debits:        %d (%s)\n", st.Debits, st.TotalDebits)
	fmt.Fprintf(w, "  Credits:       %d (%s)\n", st.Credits, st.TotalCredits)
	fmt.Fprintf(w, "  Uncategorized: %d\n", st.Uncategorized)
	if st.StartDate != "" {
		fmt.Fprintf(w, "  Date range:    %s to %s\n", st.StartDate, st.EndDate)
	}

	if len(v.Issues) == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
		return
	}
	fmt.Fprintf(w, "\nIssues (%d):\n", len(v.Issues))
	fmt.Fprintln(w, "  "+strings.Join(v.Issues, "\n  "))
}
