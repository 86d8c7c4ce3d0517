package tabular

import "strings"

// Field is a canonical column role.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldBalance     Field = "balance"
)

// Synonyms lists the header spellings recognized for each field.
// Single-word entries shorter than four letters only match exactly.
var Synonyms = map[Field][]string{
	FieldDate:        {"date", "transaction date", "posting date", "post date", "posted date", "value date", "trans date", "booking date"},
	FieldDescription: {"description", "transaction description", "details", "transaction details", "narrative", "particulars", "memo", "payee", "merchant"},
	FieldAmount:      {"amount", "transaction amount", "value"},
	FieldDebit:       {"debit", "debits", "withdrawal", "withdrawals", "paid out", "money out", "dr", "out"},
	FieldCredit:      {"credit", "credits", "deposit", "deposits", "paid in", "money in", "cr", "in"},
	FieldBalance:     {"balance", "running balance", "closing balance"},
}

// Substring matching runs in this order so "Withdrawal Amount" lands on debit
// before amount gets a chance at it.
var substringOrder = []Field{FieldDebit, FieldCredit, FieldBalance, FieldDate, FieldDescription, FieldAmount}

// exactOrder is the priority for exact synonym matches.
var exactOrder = []Field{FieldDate, FieldDescription, FieldAmount, FieldDebit, FieldCredit, FieldBalance}

// Columns maps each resolved field to its column index.
type Columns map[Field]int

// ResolveColumns assigns header columns to fields. Exact synonym matches are
// taken first, then substring matches. Each column serves at most one field.
func ResolveColumns(header []string) Columns {
	cols := make(Columns)
	taken := make(map[int]bool)
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	for _, f := range exactOrder {
		for i, h := range norm {
			if taken[i] || h == "" {
				continue
			}
			if matchesExact(h, Synonyms[f]) {
				cols[f] = i
				taken[i] = true
				break
			}
		}
	}

	for _, f := range substringOrder {
		if _, ok := cols[f]; ok {
			continue
		}
		for i, h := range norm {
			if taken[i] || h == "" {
				continue
			}
			if matchesSubstring(h, Synonyms[f]) {
				cols[f] = i
				taken[i] = true
				break
			}
		}
	}

	return cols
}

func matchesExact(h string, synonyms []string) bool {
	for _, s := range synonyms {
		if h == s {
			return true
		}
	}
	return false
}

func matchesSubstring(h string, synonyms []string) bool {
	for _, s := range synonyms {
		if len(s) < 4 {
			continue
		}
		if strings.Contains(h, s) {
			return true
		}
	}
	return false
}

// amountMode says how a resolved table encodes money.
type amountMode int

const (
	amountNone amountMode = iota
	amountSigned
	amountDebitCredit
)

// mode prefers explicit debit/credit columns over a signed amount column.
func (c Columns) mode() amountMode {
	_, hasDebit := c[FieldDebit]
	_, hasCredit := c[FieldCredit]
	if hasDebit && hasCredit {
		return amountDebitCredit
	}
	if _, ok := c[FieldAmount]; ok {
		return amountSigned
	}
	return amountNone
}

// Usable reports whether the columns describe a transaction table.
func (c Columns) Usable() bool {
	_, hasDate := c[FieldDate]
	_, hasDesc := c[FieldDescription]
	return hasDate && hasDesc && c.mode() != amountNone
}

// index returns the column for f, or -1.
func (c Columns) index(f Field) int {
	if i, ok := c[f]; ok {
		return i
	}
	return -1
}

// missing describes why c is not usable.
func (c Columns) missing() string {
	var parts []string
	if _, ok := c[FieldDate]; !ok {
		parts = append(parts, "date")
	}
	if _, ok := c[FieldDescription]; !ok {
		parts = append(parts, "description")
	}
	if c.mode() == amountNone {
		parts = append(parts, "amount or debit/credit")
	}
	return "no " + strings.Join(parts, ", ") + " column"
}
