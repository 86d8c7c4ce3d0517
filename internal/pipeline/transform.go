package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
	"github.com/shopspring/decimal"
)

// extractedDateLayouts are tried in order on the "date" field.
var extractedDateLayouts = []string{"2006-01-02", "01/02/2006"}

// RecordsToTransactions converts extractor records into transactions.
// A record that is not an object, lacks a description, or carries a
// non-numeric or ambiguous debit/credit is skipped with a warning. An
// unparseable date is replaced by today and reported as WarningDateDefaulted.
// Zero surviving records is NoValidTransactions.
func RecordsToTransactions(records []any, today civil.Date) ([]domain.Transaction, []domain.Warning, error) {
	var (
		txs      []domain.Transaction
		warnings []domain.Warning
	)

	for i, rec := range records {
		row := i + 1

		obj, ok := rec.(map[string]any)
		if !ok {
			warnings = append(warnings, domain.RowSkipped(ExtractionSource, row, "record is %s, want an object", jsonKind(rec)))
			continue
		}

		tx, defaulted, err := recordToTransaction(obj, today)
		if err != nil {
			warnings = append(warnings, domain.RowSkipped(ExtractionSource, row, "%v", err))
			continue
		}
		if defaulted != "" {
			warnings = append(warnings, domain.Warning{
				Kind:   domain.WarningDateDefaulted,
				Source: ExtractionSource,
				Row:    row,
				Reason: defaulted,
			})
		}
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		return nil, warnings, domain.NoValidTransactions(ExtractionSource)
	}
	return txs, warnings, nil
}

// recordToTransaction returns a non-empty reason when the date was defaulted.
func recordToTransaction(obj map[string]any, today civil.Date) (domain.Transaction, string, error) {
	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return domain.Transaction{}, "", err
	}

	debit, err := getAmountField(obj, "debit")
	if err != nil {
		return domain.Transaction{}, "", err
	}
	credit, err := getAmountField(obj, "credit")
	if err != nil {
		return domain.Transaction{}, "", err
	}
	amount, typ, err := domain.FromDebitCredit(debit, credit)
	if err != nil {
		return domain.Transaction{}, "", err
	}

	var defaulted string
	date, ok := parseExtractedDate(obj["date"])
	if !ok {
		date = today
		defaulted = fmt.Sprintf("invalid date %q, using %s", fmt.Sprint(obj["date"]), today)
		if obj["date"] == nil {
			defaulted = fmt.Sprintf("missing date, using %s", today)
		}
	}

	tx, err := domain.NewTransaction(date, desc, amount, typ)
	if err != nil {
		return domain.Transaction{}, "", err
	}

	// A balance that is not a number is dropped rather than failing the record.
	if bal, err := getOptionalAmountField(obj, "balance"); err == nil && bal != nil {
		tx.Balance = bal
	}
	tx.OriginalData = maps.Clone(obj)

	return tx, defaulted, nil
}

func parseExtractedDate(v any) (civil.Date, bool) {
	s, ok := v.(string)
	if !ok {
		return civil.Date{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range extractedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

// getAmountField reads a money field. Missing, null and blank values are zero.
func getAmountField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	d, err := getOptionalAmountField(m, key)
	if err != nil {
		return decimal.Zero, err
	}
	if d == nil {
		return decimal.Zero, nil
	}
	return *d, nil
}

func getOptionalAmountField(m map[string]interface{}, key string) (*decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case float64:
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case string:
		d, err = tabular.ParseAmount(val)
		if errors.Is(err, tabular.ErrEmptyAmount) {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("field %q has type %T, want number", key, v)
	}
	if err != nil {
		return nil, fmt.Errorf("field %q is not a number: %q", key, fmt.Sprint(v))
	}
	return &d, nil
}
