package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_SignFollowsType(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 5}

	tests := []struct {
		name   string
		amount string
		typ    TxType
		want   string
	}{
		{"positive debit", "12.50", Debit, "-12.5"},
		{"negative debit", "-12.50", Debit, "-12.5"},
		{"positive credit", "100", Credit, "100"},
		{"negative credit", "-100", Credit, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(date, " Coffee ", decimal.RequireFromString(tt.amount), tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.Amount.String())
			assert.Equal(t, "Coffee", tx.Description)
			assert.Equal(t, CategoryUncategorized, tx.Category)
			assert.Equal(t, tt.typ == Debit, tx.IsDebit())
		})
	}
}

func TestNewTransaction_Rejects(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 5}

	_, err := NewTransaction(date, "   ", decimal.NewFromInt(1), Debit)
	assert.Error(t, err)

	_, err = NewTransaction(date, "x", decimal.Zero, Debit)
	assert.Error(t, err)

	_, err = NewTransaction(civil.Date{Year: 2024, Month: 2, Day: 30}, "x", decimal.NewFromInt(1), Debit)
	assert.Error(t, err)
}

func TestFromDebitCredit(t *testing.T) {
	tests := []struct {
		name     string
		debit    string
		credit   string
		want     string
		wantType TxType
		wantErr  bool
	}{
		{"debit only", "45.00", "0", "-45", Debit, false},
		{"credit only", "0", "1200", "1200", Credit, false},
		{"both set", "10", "10", "", "", true},
		{"neither set", "0", "0", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, typ, err := FromDebitCredit(decimal.RequireFromString(tt.debit), decimal.RequireFromString(tt.credit))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amt.String())
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

func TestTransaction_CloneDoesNotAlias(t *testing.T) {
	bal := decimal.NewFromInt(500)
	tx := Transaction{
		Description:  "Rent",
		Amount:       decimal.NewFromInt(-400),
		Type:         Debit,
		Balance:      &bal,
		OriginalData: map[string]any{"Details": "Rent"},
	}

	c := tx.Clone()
	c.Category = "Housing"
	*c.Balance = decimal.NewFromInt(1)
	c.OriginalData["Details"] = "changed"

	assert.Equal(t, "", tx.Category)
	assert.Equal(t, "500", tx.Balance.String())
	assert.Equal(t, "Rent", tx.OriginalData["Details"])
}

func TestTransaction_MarshalJSON(t *testing.T) {
	bal := decimal.RequireFromString("1234.567")
	tx := Transaction{
		Date:        civil.Date{Year: 2024, Month: 3, Day: 9},
		Description: "Salary",
		Amount:      decimal.RequireFromString("2500.005"),
		Type:        Credit,
		Category:    "Income",
		Balance:     &bal,
	}

	raw, err := json.Marshal(tx)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2024-03-09", got["date"])
	assert.Equal(t, 2500.01, got["amount"])
	assert.Equal(t, 1234.57, got["balance"])
	assert.Equal(t, "Credit", got["type"])
	assert.NotContains(t, got, "original_data")
}

func TestParseTxType(t *testing.T) {
	typ, err := ParseTxType("DEBIT")
	require.NoError(t, err)
	assert.Equal(t, Debit, typ)

	typ, err = ParseTxType(" credit ")
	require.NoError(t, err)
	assert.Equal(t, Credit, typ)

	_, err = ParseTxType("transfer")
	assert.Error(t, err)
}

func TestError_IsAndKindOf(t *testing.T) {
	err := fmt.Errorf("NormalizeStrict: %w", MissingColumns([]string{"type"}))

	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.False(t, errors.Is(err, ErrNoValidTransactions))
	assert.Equal(t, KindMissingColumns, KindOf(err))
	assert.Contains(t, err.Error(), "Missing required columns: type")
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))

	cause := errors.New("bad json")
	wrapped := MalformedExtractionResponse(cause, "response is not JSON")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "response is not JSON: bad json", wrapped.Error())
}

func TestSkipped(t *testing.T) {
	ws := []Warning{
		RowSkipped("statement.csv", 2, "invalid date %q", "x"),
		{Kind: WarningDateDefaulted, Row: 3, Reason: "date missing"},
		RowSkipped("", 4, "empty description"),
	}
	assert.Equal(t, 2, Skipped(ws))
	assert.Equal(t, `statement.csv row 2: invalid date "x"`, ws[0].String())
	assert.Equal(t, "row 4: empty description", ws[2].String())
}
