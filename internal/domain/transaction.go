package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TxType is the direction of a transaction.
type TxType string

const (
	Debit  TxType = "Debit"
	Credit TxType = "Credit"
)

// CategoryUncategorized is the placeholder category every normalizer emits.
const CategoryUncategorized = "Uncategorized"

// ParseTxType accepts "debit"/"credit" in any case.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	default:
		return "", fmt.Errorf("ParseTxType: unknown transaction type %q", s)
	}
}

// Transaction is the canonical record every source is normalized into.
// Debits carry a negative Amount, credits a positive one; zero is never stored.
type Transaction struct {
	Date        civil.Date       // calendar date, no time of day
	Description string           // trimmed, never empty
	Amount      decimal.Decimal  // signed
	Type        TxType           // agrees with the sign of Amount
	Category    string           // "Uncategorized" until categorized
	Balance     *decimal.Decimal // running balance when the source has one

	// OriginalData is the raw source row. It is carried through untouched.
	OriginalData map[string]any
}

// NewTransaction builds a transaction whose amount sign follows typ.
// The magnitude of amount is used, so callers may pass either sign.
func NewTransaction(date civil.Date, description string, amount decimal.Decimal, typ TxType) (Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Transaction{}, fmt.Errorf("NewTransaction: empty description")
	}
	if !date.IsValid() {
		return Transaction{}, fmt.Errorf("NewTransaction: invalid date %v", date)
	}
	if amount.IsZero() {
		return Transaction{}, fmt.Errorf("NewTransaction: zero amount")
	}

	signed := amount.Abs()
	switch typ {
	case Debit:
		signed = signed.Neg()
	case Credit:
	default:
		return Transaction{}, fmt.Errorf("NewTransaction: unknown type %q", typ)
	}

	return Transaction{
		Date:        date,
		Description: description,
		Amount:      signed,
		Type:        typ,
		Category:    CategoryUncategorized,
	}, nil
}

// FromDebitCredit derives the signed amount and type from a debit/credit pair.
// Exactly one side must be nonzero.
func FromDebitCredit(debit, credit decimal.Decimal) (decimal.Decimal, TxType, error) {
	switch {
	case !debit.IsZero() && !credit.IsZero():
		return decimal.Zero, "", fmt.Errorf("both debit %s and credit %s are set", debit, credit)
	case !debit.IsZero():
		return debit.Abs().Neg(), Debit, nil
	case !credit.IsZero():
		return credit.Abs(), Credit, nil
	default:
		return decimal.Zero, "", fmt.Errorf("neither debit nor credit is set")
	}
}

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// Clone returns a copy that shares no mutable state with t.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Balance != nil {
		b := *t.Balance
		c.Balance = &b
	}
	if t.OriginalData != nil {
		c.OriginalData = maps.Clone(t.OriginalData)
	}
	return c
}

type transactionJSON struct {
	Date         string         `json:"date"`
	Description  string         `json:"description"`
	Amount       float64        `json:"amount"`
	Type         TxType         `json:"type"`
	Category     string         `json:"category"`
	Balance      *float64       `json:"balance,omitempty"`
	OriginalData map[string]any `json:"original_data,omitempty"`
}

// MarshalJSON renders amounts as numbers rounded to cents and the date as YYYY-MM-DD.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Date:         t.Date.String(),
		Description:  t.Description,
		Amount:       t.Amount.Round(2).InexactFloat64(),
		Type:         t.Type,
		Category:     t.Category,
		OriginalData: t.OriginalData,
	}
	if t.Balance != nil {
		b := t.Balance.Round(2).InexactFloat64()
		out.Balance = &b
	}
	return json.Marshal(out)
}
