package tabular

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/shopspring/decimal"
)

// StrictColumns are the required headers of the fixed layout, in report order.
var StrictColumns = []string{"date", "description", "amount", "type"}

// NormalizeStrict converts a Date,Description,Amount,Type table. Header names
// match case-insensitively. Bad rows are skipped with a warning; the stored
// amount sign always follows the Type column.
func NormalizeStrict(ctx context.Context, t Table) ([]domain.Transaction, []domain.Warning, error) {
	log := logger.FromContext(ctx).With().Str("source", t.Name).Str("mode", "strict").Logger()

	if len(t.Header) == 0 {
		return nil, nil, domain.UnreadableSource(nil, "File is empty")
	}

	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, c := range StrictColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, domain.MissingColumns(missing)
	}

	var (
		txs      []domain.Transaction
		warnings []domain.Warning
	)
	for i, row := range t.Rows {
		rowNum := i + 1
		tx, err := strictRow(row, idx)
		if err != nil {
			w := domain.RowSkipped(t.Name, rowNum, "%v", err)
			log.Warn().Int("row", rowNum).Str("reason", w.Reason).Msg("Skipping row")
			warnings = append(warnings, w)
			continue
		}
		tx.OriginalData = rowData(t.Header, row)
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		return nil, warnings, domain.NoValidTransactions("")
	}

	log.Info().Int("count", len(txs)).Int("skipped", len(warnings)).Msg("Normalized table")
	return txs, warnings, nil
}

func strictRow(row []string, idx map[string]int) (domain.Transaction, error) {
	date, err := ParseStrictDate(cell(row, idx["date"]))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid date: %w", err)
	}

	desc := cell(row, idx["description"])
	if desc == "" {
		return domain.Transaction{}, fmt.Errorf("empty description")
	}

	rawAmount := cell(row, idx["amount"])
	if rawAmount == "" {
		return domain.Transaction{}, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid amount %q", rawAmount)
	}
	if amount.IsZero() {
		return domain.Transaction{}, fmt.Errorf("zero amount")
	}

	typ, err := domain.ParseTxType(cell(row, idx["type"]))
	if err != nil {
		return domain.Transaction{}, err
	}

	return domain.NewTransaction(date, desc, amount, typ)
}
