package analytics

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy thresholds.
const (
	anomalyChangePercent  = 25.0
	anomalyHighPercent    = 50.0
	dominancePercent      = 40.0
	budgetRiskFactor      = 1.2
	smallPurchaseLimit    = 20
	smallPurchaseMinCount = 5
	smallPurchaseMinTotal = 50
	weekendShareThreshold = 0.4
	lowSavingsRate        = 0.1
	healthySavingsRate    = 0.2
)

// GenerateInsights derives alerts from categorized transactions and their
// Result. today anchors the budget projection; nothing else reads the clock.
// Families are emitted in a fixed order: anomalies, budget risk, savings
// opportunities, habits, financial health.
func GenerateInsights(txs []domain.Transaction, r *Result, today civil.Date) []Insight {
	if len(txs) == 0 || r.Empty() {
		return nil
	}

	var out []Insight
	out = append(out, spendingAnomalies(r)...)
	out = append(out, budgetRisk(txs, r, today)...)
	out = append(out, savingsOpportunities(txs)...)
	out = append(out, spendingHabits(txs)...)
	out = append(out, financialHealth(r)...)
	return out
}

func spendingAnomalies(r *Result) []Insight {
	var out []Insight

	months := sortedMonths(r.ByMonth)
	if len(months) >= 2 {
		current := decimal.NewFromFloat(r.ByMonth[months[len(months)-1]].TotalExpenses)

		previous := months[:len(months)-1]
		if len(previous) > 2 {
			previous = previous[len(previous)-2:]
		}
		prevSum := decimal.Zero
		for _, m := range previous {
			prevSum = prevSum.Add(decimal.NewFromFloat(r.ByMonth[m].TotalExpenses))
		}
		avg := mean(prevSum, len(previous))

		if avg.IsPositive() {
			change := current.Sub(avg).Div(avg).Mul(hundred).InexactFloat64()
			switch {
			case change > anomalyChangePercent:
				severity := SeverityMedium
				if change > anomalyHighPercent {
					severity = SeverityHigh
				}
				out = append(out, Insight{
					Type:           InsightSpendingSpike,
					Severity:       severity,
					Title:          "Unusual Spending Detected",
					Message:        fmt.Sprintf("Your spending increased by %.0f%% this month compared to your average.", change),
					Amount:         money(current.Sub(avg)),
					Recommendation: "Review your recent transactions to identify the cause of increased spending.",
				})
			case change < -anomalyChangePercent:
				out = append(out, Insight{
					Type:           InsightSpendingDecrease,
					Severity:       SeverityPositive,
					Title:          "Great Spending Control!",
					Message:        fmt.Sprintf("Your spending decreased by %.0f%% this month.", -change),
					Amount:         money(avg.Sub(current)),
					Recommendation: "Consider putting the saved money into your emergency fund or investments.",
				})
			}
		}
	}

	names := make([]string, 0, len(r.ByCategory))
	for name := range r.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stats := r.ByCategory[name]
		if stats.Type != KindExpense || stats.PercentageOfTotal <= dominancePercent {
			continue
		}
		out = append(out, Insight{
			Type:           InsightCategoryDominance,
			Severity:       SeverityMedium,
			Title:          fmt.Sprintf("High %s Spending", name),
			Message:        fmt.Sprintf("%s represents %.0f%% of your total spending.", name, stats.PercentageOfTotal),
			Amount:         stats.Total,
			Recommendation: fmt.Sprintf("Consider ways to reduce %s expenses or create a specific budget for this category.", name),
		})
	}

	return out
}

// budgetRisk projects the month containing today to a full month. It needs
// at least one elapsed day, a day still ahead and two months of history.
func budgetRisk(txs []domain.Transaction, r *Result, today civil.Date) []Insight {
	monthStart := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	daysElapsed := today.DaysSince(monthStart)
	daysInMonth := time.Date(today.Year, today.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	if daysElapsed <= 0 || daysElapsed >= daysInMonth || len(r.ByMonth) < 2 {
		return nil
	}

	inMonth := 0
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Date.Before(monthStart) {
			continue
		}
		inMonth++
		if tx.Amount.IsNegative() {
			spent = spent.Add(tx.Amount.Abs())
		}
	}
	if inMonth == 0 {
		return nil
	}

	projected := spent.Div(decimal.NewFromInt(int64(daysElapsed))).Mul(decimal.NewFromInt(int64(daysInMonth)))

	monthSum := decimal.Zero
	for _, m := range r.ByMonth {
		monthSum = monthSum.Add(decimal.NewFromFloat(m.TotalExpenses))
	}
	avg := mean(monthSum, len(r.ByMonth))

	if !projected.GreaterThan(avg.Mul(decimal.NewFromFloat(budgetRiskFactor))) {
		return nil
	}

	over := projected.Sub(avg)
	return []Insight{{
		Type:           InsightBudgetRisk,
		Severity:       SeverityHigh,
		Title:          "Budget Overrun Risk",
		Message:        fmt.Sprintf("Based on current spending, you may exceed your average monthly budget by $%s.", over.StringFixed(2)),
		Amount:         money(over),
		Recommendation: "Consider reducing discretionary spending for the remainder of the month.",
	}}
}

func savingsOpportunities(txs []domain.Transaction) []Insight {
	limit := decimal.NewFromInt(smallPurchaseLimit)
	groups := make(map[string]*categoryAcc)
	for _, tx := range txs {
		if !tx.Amount.IsNegative() || !tx.Amount.Abs().LessThan(limit) {
			continue
		}
		acc, ok := groups[tx.Category]
		if !ok {
			acc = &categoryAcc{}
			groups[tx.Category] = acc
		}
		acc.sum = acc.sum.Add(tx.Amount.Abs())
		acc.count++
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	minTotal := decimal.NewFromInt(smallPurchaseMinTotal)
	var out []Insight
	for _, name := range names {
		acc := groups[name]
		if acc.count < smallPurchaseMinCount || acc.sum.LessThan(minTotal) {
			continue
		}
		out = append(out, Insight{
			Type:           InsightSavingsOpportunity,
			Severity:       SeverityMedium,
			Title:          fmt.Sprintf("Small %s Purchases Add Up", name),
			Message:        fmt.Sprintf("%d small %s purchases totaled $%s.", acc.count, name, acc.sum.StringFixed(2)),
			Amount:         money(acc.sum),
			Recommendation: fmt.Sprintf("Consider bulk purchasing or setting a weekly limit for %s expenses.", name),
		})
	}
	return out
}

func spendingHabits(txs []domain.Transaction) []Insight {
	weekend, weekday := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		switch tx.Date.In(time.UTC).Weekday() {
		case time.Saturday, time.Sunday:
			weekend = weekend.Add(tx.Amount.Abs())
		default:
			weekday = weekday.Add(tx.Amount.Abs())
		}
	}

	if !weekend.IsPositive() || !weekday.IsPositive() {
		return nil
	}

	share := weekend.Div(weekend.Add(weekday)).InexactFloat64()
	if share <= weekendShareThreshold {
		return nil
	}
	return []Insight{{
		Type:           InsightSpendingPattern,
		Severity:       SeverityInfo,
		Title:          "Weekend Spending Pattern",
		Message:        fmt.Sprintf("%.0f%% of your spending happens on weekends.", share*100),
		Amount:         money(weekend),
		Recommendation: "Consider setting a weekend spending limit to better control your budget.",
	}}
}

// financialHealth emits at most one insight, for the first matching savings band.
// Rates in [10%, 20%) produce nothing.
func financialHealth(r *Result) []Insight {
	income := decimal.NewFromFloat(r.Summary.TotalIncome)
	expenses := decimal.NewFromFloat(r.Summary.TotalExpenses)
	if !income.IsPositive() {
		return nil
	}

	saved := income.Sub(expenses)
	rate := saved.Div(income).InexactFloat64()

	switch {
	case rate < 0:
		over := expenses.Sub(income)
		return []Insight{{
			Type:           InsightFinancialHealth,
			Severity:       SeverityHigh,
			Title:          "Spending Exceeds Income",
			Message:        fmt.Sprintf("You spent $%s more than you earned.", over.StringFixed(2)),
			Amount:         money(over),
			Recommendation: "Immediate action needed: reduce expenses or increase income to avoid debt.",
		}}
	case rate < lowSavingsRate:
		gap := income.Mul(decimal.NewFromFloat(healthySavingsRate)).Sub(saved)
		return []Insight{{
			Type:           InsightFinancialHealth,
			Severity:       SeverityMedium,
			Title:          "Low Savings Rate",
			Message:        fmt.Sprintf("You're only saving %.1f%% of your income.", rate*100),
			Amount:         money(gap),
			Recommendation: "Financial experts recommend saving at least 20% of income. Consider reducing expenses.",
		}}
	case rate >= healthySavingsRate:
		return []Insight{{
			Type:           InsightFinancialHealth,
			Severity:       SeverityPositive,
			Title:          "Excellent Savings Rate!",
			Message:        fmt.Sprintf("You're saving %.1f%% of your income.", rate*100),
			Amount:         money(saved),
			Recommendation: "Great job! Consider investing your savings for long-term growth.",
		}}
	}
	return nil
}
