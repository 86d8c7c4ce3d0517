package tabular

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned by ParseAmount for blank cells.
var ErrEmptyAmount = errors.New("empty amount")

var amountReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "\u00a0", "")

// ParseAmount parses a money cell. Currency symbols ($ € £) and thousands
// separators are stripped; "(12.50)" and a trailing minus read as negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	v := amountReplacer.Replace(raw)
	if v == "" || v == "-" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = v[1 : len(v)-1]
	}
	if strings.HasSuffix(v, "-") {
		negative = true
		v = strings.TrimSuffix(v, "-")
	}
	v = strings.TrimPrefix(v, "+")

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: invalid amount %q", raw)
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// parseOptionalAmount treats a blank cell as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if errors.Is(err, ErrEmptyAmount) {
		return decimal.Zero, nil
	}
	return d, err
}
