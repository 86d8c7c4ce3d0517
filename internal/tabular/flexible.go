package tabular

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/shopspring/decimal"
)

// HeaderScanDepth is how many leading rows may stand in for a header that
// did not resolve, e.g. when a title row sits above the column names.
const HeaderScanDepth = 5

// NormalizeFlexible converts a single table with bank-specific headers.
// A table whose headers do not describe transactions returns AmbiguousTable.
func NormalizeFlexible(ctx context.Context, t Table) ([]domain.Transaction, []domain.Warning, error) {
	header, rows, cols, ok := locateHeader(t)
	if !ok {
		return nil, nil, domain.AmbiguousTable(t.Name, ResolveColumns(t.Header).missing())
	}

	log := logger.FromContext(ctx).With().Str("source", t.Name).Str("mode", "flexible").Logger()

	var (
		txs      []domain.Transaction
		warnings []domain.Warning
	)
	for i, row := range rows {
		rowNum := i + 1
		if isBlank(row) {
			continue
		}
		tx, err := flexibleRow(row, cols)
		if err != nil {
			w := domain.RowSkipped(t.Name, rowNum, "%v", err)
			log.Warn().Int("row", rowNum).Str("reason", w.Reason).Msg("Skipping row")
			warnings = append(warnings, w)
			continue
		}
		tx.OriginalData = rowData(header, row)
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		return nil, warnings, domain.NoValidTransactions(t.Name)
	}

	log.Info().Int("count", len(txs)).Int("skipped", len(warnings)).Msg("Normalized table")
	return txs, warnings, nil
}

// NormalizeTables runs flexible mode over every table of a document.
// Ambiguous tables are skipped; the call fails with AmbiguousTable only when
// no table resolves, and with NoValidTransactions when resolved tables yield
// no rows.
func NormalizeTables(ctx context.Context, tables []Table) ([]domain.Transaction, []domain.Warning, error) {
	log := logger.FromContext(ctx)

	var (
		txs      []domain.Transaction
		warnings []domain.Warning
		usable   int
	)
	for _, t := range tables {
		got, ws, err := NormalizeFlexible(ctx, t)
		warnings = append(warnings, ws...)
		switch {
		case errors.Is(err, domain.ErrAmbiguousTable):
			log.Debug().Str("table", t.Name).Err(err).Msg("Skipping non-transaction table")
			continue
		case errors.Is(err, domain.ErrNoValidTransactions):
			usable++
			continue
		case err != nil:
			return nil, warnings, fmt.Errorf("NormalizeTables: table %q: %w", t.Name, err)
		}
		usable++
		txs = append(txs, got...)
	}

	if usable == 0 {
		return nil, warnings, domain.AmbiguousTable("", fmt.Sprintf("none of %d tables has transaction columns", len(tables)))
	}
	if len(txs) == 0 {
		return nil, warnings, domain.NoValidTransactions("")
	}
	return txs, warnings, nil
}

// locateHeader returns the header, the data rows below it and the resolved
// columns. The declared header is tried first, then the leading rows.
func locateHeader(t Table) ([]string, [][]string, Columns, bool) {
	if cols := ResolveColumns(t.Header); cols.Usable() {
		return t.Header, t.Rows, cols, true
	}
	for i := 0; i < len(t.Rows) && i < HeaderScanDepth; i++ {
		if cols := ResolveColumns(t.Rows[i]); cols.Usable() {
			return t.Rows[i], t.Rows[i+1:], cols, true
		}
	}
	return nil, nil, nil, false
}

func flexibleRow(row []string, cols Columns) (domain.Transaction, error) {
	rawDate := cell(row, cols.index(FieldDate))
	date, err := ParseFlexibleDate(rawDate)
	if err != nil {
		return domain.Transaction{}, err
	}

	desc := cell(row, cols.index(FieldDescription))
	if desc == "" {
		return domain.Transaction{}, fmt.Errorf("empty description")
	}

	var (
		amount decimal.Decimal
		typ    domain.TxType
	)
	switch cols.mode() {
	case amountDebitCredit:
		debit, err := parseOptionalAmount(cell(row, cols.index(FieldDebit)))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("debit: %w", err)
		}
		credit, err := parseOptionalAmount(cell(row, cols.index(FieldCredit)))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("credit: %w", err)
		}
		amount, typ, err = domain.FromDebitCredit(debit, credit)
		if err != nil {
			return domain.Transaction{}, err
		}
	default:
		amount, err = ParseAmount(cell(row, cols.index(FieldAmount)))
		if err != nil {
			return domain.Transaction{}, err
		}
		switch amount.Sign() {
		case -1:
			typ = domain.Debit
		case 1:
			typ = domain.Credit
		default:
			return domain.Transaction{}, fmt.Errorf("zero amount")
		}
	}

	tx, err := domain.NewTransaction(date, desc, amount, typ)
	if err != nil {
		return domain.Transaction{}, err
	}

	if i := cols.index(FieldBalance); i >= 0 {
		if bal, err := ParseAmount(cell(row, i)); err == nil {
			tx.Balance = &bal
		}
	}
	return tx, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
