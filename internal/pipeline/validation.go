package pipeline

import (
	"fmt"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidationReport lists suspicious records of a batch and some totals.
type ValidationReport struct {
	Issues     []string        `json:"issues"`
	Statistics ValidationStats `json:"statistics"`
}

type ValidationStats struct {
	Transactions  int    `json:"total_transactions"`
	Debits        int    `json:"debits"`
	Credits       int    `json:"credits"`
	TotalDebits   string `json:"total_debits"`
	TotalCredits  string `json:"total_credits"`
	Uncategorized int    `json:"uncategorized"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

// Validate checks a batch for records that slipped past normalization in a
// doubtful state. It never modifies or drops anything.
func Validate(txs []domain.Transaction) ValidationReport {
	report := ValidationReport{Issues: []string{}}
	debits, credits := decimal.Zero, decimal.Zero

	for i, tx := range txs {
		n := i + 1
		if tx.Description == "" {
			report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Missing or empty description", n))
		}
		if !tx.Date.IsValid() {
			report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Invalid date: %s", n, tx.Date))
		}
		if tx.Amount.IsZero() {
			report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Amount is zero", n))
		}

		switch tx.Type {
		case domain.Debit:
			if tx.Amount.IsPositive() {
				report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Debit with positive amount %s", n, tx.Amount))
			}
			report.Statistics.Debits++
			debits = debits.Add(tx.Amount.Abs())
		case domain.Credit:
			if tx.Amount.IsNegative() {
				report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Credit with negative amount %s", n, tx.Amount))
			}
			report.Statistics.Credits++
			credits = credits.Add(tx.Amount.Abs())
		default:
			report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Invalid type: %q", n, tx.Type))
		}

		switch tx.Category {
		case "":
			report.Issues = append(report.Issues, fmt.Sprintf("Trans %d: Missing category", n))
		case domain.CategoryUncategorized:
			report.Statistics.Uncategorized++
		}

		if tx.Date.IsValid() {
			if report.Statistics.StartDate == "" || tx.Date.String() < report.Statistics.StartDate {
				report.Statistics.StartDate = tx.Date.String()
			}
			if tx.Date.String() > report.Statistics.EndDate {
				report.Statistics.EndDate = tx.Date.String()
			}
		}
	}

	report.Statistics.Transactions = len(txs)
	report.Statistics.TotalDebits = debits.StringFixed(2)
	report.Statistics.TotalCredits = credits.StringFixed(2)
	return report
}
