package analytics

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Result is the full statistical breakdown of a categorized statement.
// Money fields are rounded to cents; a Result built from no transactions is
// empty and marshals as {}.
type Result struct {
	Summary          Summary                  `json:"summary"`
	ByCategory       map[string]CategoryStats `json:"by_category"`
	ByMonth          map[string]MonthStats    `json:"by_month"`
	SpendingTrends   *SpendingTrends          `json:"spending_trends"` // nil without expenses
	TopExpenses      []TopExpense             `json:"top_expenses"`
	IncomeVsExpenses IncomeVsExpenses         `json:"income_vs_expenses"`
	SpendingPatterns SpendingPatterns         `json:"spending_patterns"`
	Insights         []Insight                `json:"ai_insights"`
}

// Empty reports whether the result was built from zero transactions.
func (r *Result) Empty() bool {
	return r == nil || r.Summary.TotalTransactions == 0
}

func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return []byte("{}"), nil
	}
	type plain Result
	out := plain(*r)
	if out.Insights == nil {
		out.Insights = []Insight{}
	}
	if out.TopExpenses == nil {
		out.TopExpenses = []TopExpense{}
	}
	return json.Marshal(out)
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Summary struct {
	TotalTransactions  int       `json:"total_transactions"`
	TotalIncome        float64   `json:"total_income"`
	TotalExpenses      float64   `json:"total_expenses"`
	NetIncome          float64   `json:"net_income"`
	AverageTransaction float64   `json:"average_transaction"`
	DateRange          DateRange `json:"date_range"`
}

// Category kinds.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// CategoryStats describes one category. Total is money spent for expense
// categories and money earned for income categories.
type CategoryStats struct {
	Type                  string
	Total                 float64
	TransactionCount      int
	AveragePerTransaction float64
	// PercentageOfTotal is the share of total expenses, one decimal place.
	// Always 0 for income categories.
	PercentageOfTotal float64
}

func (c CategoryStats) MarshalJSON() ([]byte, error) {
	totalKey := "total_spent"
	if c.Type == KindIncome {
		totalKey = "total_earned"
	}
	return json.Marshal(map[string]any{
		totalKey:                  c.Total,
		"transaction_count":       c.TransactionCount,
		"average_per_transaction": c.AveragePerTransaction,
		"percentage_of_total":     c.PercentageOfTotal,
		"type":                    c.Type,
	})
}

type MonthStats struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetIncome        float64 `json:"net_income"`
	TransactionCount int     `json:"transaction_count"`
}

type DayAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type SpendingTrends struct {
	DailyAverage       float64   `json:"daily_average"`
	HighestSpendingDay DayAmount `json:"highest_spending_day"`
	LowestSpendingDay  DayAmount `json:"lowest_spending_day"`
	WeeklyAverage      float64   `json:"weekly_average"`
}

type TopExpense struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"` // absolute value
	Category    string  `json:"category"`
}

type IncomeVsExpenses struct {
	IncomeTransactionCount       int     `json:"income_transaction_count"`
	ExpenseTransactionCount      int     `json:"expense_transaction_count"`
	AverageIncomePerTransaction  float64 `json:"average_income_per_transaction"`
	AverageExpensePerTransaction float64 `json:"average_expense_per_transaction"`
	IncomeToExpenseRatio         float64 `json:"income_to_expense_ratio"` // 0 without expenses
}

type SpendingPatterns struct {
	SpendingByDay        map[string]float64 `json:"spending_by_day"`
	AverageDailySpending *float64           `json:"average_daily_spending,omitempty"` // nil for a single-day statement
}

// Insight severities.
const (
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityPositive = "positive"
	SeverityInfo     = "info"
)

// Insight types.
const (
	InsightSpendingSpike      = "spending_spike"
	InsightSpendingDecrease   = "spending_decrease"
	InsightCategoryDominance  = "category_dominance"
	InsightBudgetRisk         = "budget_risk"
	InsightSavingsOpportunity = "savings_opportunity"
	InsightSpendingPattern    = "spending_pattern"
	InsightFinancialHealth    = "financial_health"
)

type Insight struct {
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Amount         float64 `json:"amount"`
	Recommendation string  `json:"recommendation"`
}

// money rounds to cents for output.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
