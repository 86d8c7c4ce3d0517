package tabular

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want civil.Date
	}{
		{"2024-01-15", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"2024/01/15", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"01/15/2024", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"1/5/2024", civil.Date{Year: 2024, Month: 1, Day: 5}},
		{"03/04/2024", civil.Date{Year: 2024, Month: 3, Day: 4}},
		{"15/01/2024", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"25/1/2024", civil.Date{Year: 2024, Month: 1, Day: 25}},
		{"15/3/2024", civil.Date{Year: 2024, Month: 3, Day: 15}},
		{"01/15/24", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"15.01.2024", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"15 Jan 2024", civil.Date{Year: 2024, Month: 1, Day: 15}},
		{"5-Feb-2024", civil.Date{Year: 2024, Month: 2, Day: 5}},
		{"January 2, 2024", civil.Date{Year: 2024, Month: 1, Day: 2}},
		{" 2024-01-15 00:00:00 ", civil.Date{Year: 2024, Month: 1, Day: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "yesterday", "13/13/2024", "2024-02-30"} {
		_, err := ParseFlexibleDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseStrictDate(t *testing.T) {
	got, err := ParseStrictDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 5}, got)

	_, err = ParseStrictDate("2024-01-05T10:30:00")
	assert.NoError(t, err)

	_, err = ParseStrictDate("01/05/2024")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1234.56", "1234.56", false},
		{"$1,234.56", "1234.56", false},
		{"€ 99", "99", false},
		{"£-12.00", "-12", false},
		{"(45.10)", "-45.1", false},
		{"45.10-", "-45.1", false},
		{"+3", "3", false},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseAmount("   ")
	assert.True(t, errors.Is(err, ErrEmptyAmount))
}
