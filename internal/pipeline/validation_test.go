package pipeline

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

func TestValidate(t *testing.T) {
	day := func(d int) civil.Date { return civil.Date{Year: 2024, Month: 1, Day: d} }

	txs := []domain.Transaction{
		{Date: day(3), Description: "Coffee", Amount: decimal.RequireFromString("-4.50"), Type: domain.Debit, Category: "Food & Dining"},
		{Date: day(1), Description: "Salary", Amount: decimal.NewFromInt(2000), Type: domain.Credit, Category: "Income"},
		{Date: day(5), Description: "", Amount: decimal.NewFromInt(-10), Type: domain.Debit, Category: domain.CategoryUncategorized},
		{Date: day(9), Description: "Refund", Amount: decimal.NewFromInt(-3), Type: domain.Credit, Category: ""},
		{Date: day(2), Description: "Zero", Amount: decimal.Zero, Type: "Transfer", Category: "Other"},
	}

	report := Validate(txs)

	wantIssues := []string{
		"Trans 3: Missing or empty description",
		"Trans 4: Credit with negative amount -3",
		"Trans 4: Missing category",
		"Trans 5: Amount is zero",
		`Trans 5: Invalid type: "Transfer"`,
	}
	if len(report.Issues) != len(wantIssues) {
		t.Fatalf("Validate() issues = %v, want %v", report.Issues, wantIssues)
	}
	for i := range wantIssues {
		if report.Issues[i] != wantIssues[i] {
			t.Errorf("issue %d = %q, want %q", i, report.Issues[i], wantIssues[i])
		}
	}

	stats := report.Statistics
	want := ValidationStats{
		Transactions:  5,
		Debits:        2,
		Credits:       2,
		TotalDebits:   "14.50",
		TotalCredits:  "2003.00",
		Uncategorized: 1,
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-09",
	}
	if stats != want {
		t.Errorf("Validate() statistics = %+v, want %+v", stats, want)
	}
}

func TestValidate_Empty(t *testing.T) {
	report := Validate(nil)
	if len(report.Issues) != 0 {
		t.Errorf("Validate(nil) issues = %v, want none", report.Issues)
	}
	if report.Statistics.Transactions != 0 || report.Statistics.StartDate != "" {
		t.Errorf("Validate(nil) statistics = %+v, want zero", report.Statistics)
	}
	if report.Statistics.TotalDebits != "0.00" {
		t.Errorf("TotalDebits = %q, want 0.00", report.Statistics.TotalDebits)
	}
}
