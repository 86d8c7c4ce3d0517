// Package analytics computes statement statistics and rule-based insights
// from categorized transactions.
//
// Sums are accumulated with decimal arithmetic and rounded only when a value
// is written into a Result.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// topExpensesLimit caps Result.TopExpenses.
const topExpensesLimit = 10

var hundred = decimal.NewFromInt(100)

// Analyze builds a Result without insights. An empty input yields an empty Result.
func Analyze(txs []domain.Transaction) *Result {
	if len(txs) == 0 {
		return &Result{}
	}

	return &Result{
		Summary:          summarize(txs),
		ByCategory:       byCategory(txs),
		ByMonth:          byMonth(txs),
		SpendingTrends:   spendingTrends(txs),
		TopExpenses:      topExpenses(txs, topExpensesLimit),
		IncomeVsExpenses: incomeVsExpenses(txs),
		SpendingPatterns: spendingPatterns(txs),
	}
}

// totals splits amounts into income (positive) and expenses (absolute value of negatives).
type totals struct {
	income, expenses          decimal.Decimal
	incomeCount, expenseCount int
}

func (t *totals) add(amount decimal.Decimal) {
	switch amount.Sign() {
	case 1:
		t.income = t.income.Add(amount)
		t.incomeCount++
	case -1:
		t.expenses = t.expenses.Add(amount.Abs())
		t.expenseCount++
	}
}

func sumTotals(txs []domain.Transaction) totals {
	var t totals
	for _, tx := range txs {
		t.add(tx.Amount)
	}
	return t
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

func summarize(txs []domain.Transaction) Summary {
	t := sumTotals(txs)

	all := decimal.Zero
	start, end := txs[0].Date, txs[0].Date
	for _, tx := range txs {
		all = all.Add(tx.Amount)
		if tx.Date.Before(start) {
			start = tx.Date
		}
		if tx.Date.After(end) {
			end = tx.Date
		}
	}

	return Summary{
		TotalTransactions:  len(txs),
		TotalIncome:        money(t.income),
		TotalExpenses:      money(t.expenses),
		NetIncome:          money(t.income.Sub(t.expenses)),
		AverageTransaction: money(mean(all, len(txs))),
		DateRange:          DateRange{Start: start.String(), End: end.String()},
	}
}

type categoryAcc struct {
	sum   decimal.Decimal
	count int
}

func byCategory(txs []domain.Transaction) map[string]CategoryStats {
	expenses := make(map[string]*categoryAcc)
	income := make(map[string]*categoryAcc)
	totalExpenses := decimal.Zero

	for _, tx := range txs {
		var m map[string]*categoryAcc
		switch tx.Amount.Sign() {
		case -1:
			m = expenses
			totalExpenses = totalExpenses.Add(tx.Amount.Abs())
		case 1:
			m = income
		default:
			continue
		}
		acc, ok := m[tx.Category]
		if !ok {
			acc = &categoryAcc{}
			m[tx.Category] = acc
		}
		acc.sum = acc.sum.Add(tx.Amount.Abs())
		acc.count++
	}

	out := make(map[string]CategoryStats, len(expenses)+len(income))
	for name, acc := range expenses {
		pct := decimal.Zero
		if totalExpenses.IsPositive() {
			pct = acc.sum.Div(totalExpenses).Mul(hundred)
		}
		out[name] = CategoryStats{
			Type:                  KindExpense,
			Total:                 money(acc.sum),
			TransactionCount:      acc.count,
			AveragePerTransaction: money(mean(acc.sum, acc.count)),
			PercentageOfTotal:     pct.Round(1).InexactFloat64(),
		}
	}
	// A category name used on both sides reports its income figures.
	for name, acc := range income {
		out[name] = CategoryStats{
			Type:                  KindIncome,
			Total:                 money(acc.sum),
			TransactionCount:      acc.count,
			AveragePerTransaction: money(mean(acc.sum, acc.count)),
		}
	}
	return out
}

func monthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

func byMonth(txs []domain.Transaction) map[string]MonthStats {
	type acc struct {
		totals
		count int
	}
	months := make(map[string]*acc)
	for _, tx := range txs {
		key := monthKey(tx.Date)
		a, ok := months[key]
		if !ok {
			a = &acc{}
			months[key] = a
		}
		a.add(tx.Amount)
		a.count++
	}

	out := make(map[string]MonthStats, len(months))
	for key, a := range months {
		out[key] = MonthStats{
			TotalIncome:      money(a.income),
			TotalExpenses:    money(a.expenses),
			NetIncome:        money(a.income.Sub(a.expenses)),
			TransactionCount: a.count,
		}
	}
	return out
}

// sortedMonths returns the keys of ByMonth in calendar order.
func sortedMonths(m map[string]MonthStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dailyExpenses sums expense magnitudes per calendar day.
func dailyExpenses(txs []domain.Transaction) ([]civil.Date, map[civil.Date]decimal.Decimal) {
	daily := make(map[civil.Date]decimal.Decimal)
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			daily[tx.Date] = daily[tx.Date].Add(tx.Amount.Abs())
		}
	}
	days := make([]civil.Date, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, daily
}

// spendingTrends returns nil when there are no expenses. On exact ties the
// earliest day is reported as highest or lowest.
func spendingTrends(txs []domain.Transaction) *SpendingTrends {
	days, daily := dailyExpenses(txs)
	if len(days) == 0 {
		return nil
	}

	sum := decimal.Zero
	high, low := days[0], days[0]
	for _, d := range days {
		v := daily[d]
		sum = sum.Add(v)
		if v.GreaterThan(daily[high]) {
			high = d
		}
		if v.LessThan(daily[low]) {
			low = d
		}
	}

	type isoWeek struct{ year, week int }
	weekly := make(map[isoWeek]decimal.Decimal)
	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		y, w := tx.Date.In(time.UTC).ISOWeek()
		k := isoWeek{y, w}
		weekly[k] = weekly[k].Add(tx.Amount.Abs())
	}
	weekSum := decimal.Zero
	for _, v := range weekly {
		weekSum = weekSum.Add(v)
	}

	return &SpendingTrends{
		DailyAverage:       money(mean(sum, len(days))),
		HighestSpendingDay: DayAmount{Date: high.String(), Amount: money(daily[high])},
		LowestSpendingDay:  DayAmount{Date: low.String(), Amount: money(daily[low])},
		WeeklyAverage:      money(mean(weekSum, len(weekly))),
	}
}

// topExpenses returns the largest outflows by magnitude. Equal magnitudes keep input order.
func topExpenses(txs []domain.Transaction, limit int) []TopExpense {
	var debits []domain.Transaction
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			debits = append(debits, tx)
		}
	}
	sort.SliceStable(debits, func(i, j int) bool {
		return debits[i].Amount.Abs().GreaterThan(debits[j].Amount.Abs())
	})
	if len(debits) > limit {
		debits = debits[:limit]
	}

	out := make([]TopExpense, 0, len(debits))
	for _, tx := range debits {
		out = append(out, TopExpense{
			Date:        tx.Date.String(),
			Description: tx.Description,
			Amount:      money(tx.Amount.Abs()),
			Category:    tx.Category,
		})
	}
	return out
}

func incomeVsExpenses(txs []domain.Transaction) IncomeVsExpenses {
	t := sumTotals(txs)

	out := IncomeVsExpenses{
		IncomeTransactionCount:       t.incomeCount,
		ExpenseTransactionCount:      t.expenseCount,
		AverageIncomePerTransaction:  money(mean(t.income, t.incomeCount)),
		AverageExpensePerTransaction: money(mean(t.expenses, t.expenseCount)),
	}
	if t.expenses.IsPositive() {
		out.IncomeToExpenseRatio = money(t.income.Div(t.expenses))
	}
	return out
}

func spendingPatterns(txs []domain.Transaction) SpendingPatterns {
	byDay := make(map[string]decimal.Decimal)
	expenses := decimal.Zero
	start, end := txs[0].Date, txs[0].Date
	for _, tx := range txs {
		if tx.Date.Before(start) {
			start = tx.Date
		}
		if tx.Date.After(end) {
			end = tx.Date
		}
		if !tx.Amount.IsNegative() {
			continue
		}
		day := tx.Date.In(time.UTC).Weekday().String()
		byDay[day] = byDay[day].Add(tx.Amount.Abs())
		expenses = expenses.Add(tx.Amount.Abs())
	}

	out := SpendingPatterns{SpendingByDay: make(map[string]float64, len(byDay))}
	for day, v := range byDay {
		out.SpendingByDay[day] = money(v)
	}
	if span := end.DaysSince(start); span > 0 {
		avg := money(expenses.Div(decimal.NewFromInt(int64(span))))
		out.AverageDailySpending = &avg
	}
	return out
}
