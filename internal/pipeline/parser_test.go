package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "fenced object with prose around it",
			raw: "Here are the transactions:\n```json\n" +
				`{"transactions": [{"date": "2024-01-15", "description": "Coffee", "debit": 4.5, "credit": 0, "balance": 100}]}` +
				"\n```\nLet me know if you need more.",
			want: 1,
		},
		{
			name: "bare list",
			raw:  `[{"description": "a"}, {"description": "b"}]`,
			want: 2,
		},
		{
			name: "bare object",
			raw:  `{"transactions": []}`,
			want: 0,
		},
		{
			name: "untagged fence",
			raw:  "```\n[{\"description\": \"a\"}]\n```",
			want: 1,
		},
		{
			name:    "object without transactions",
			raw:     `{"data": []}`,
			wantErr: true,
		},
		{
			name:    "transactions is not a list",
			raw:     `{"transactions": {"description": "a"}}`,
			wantErr: true,
		},
		{
			name:    "top level string",
			raw:     `"no transactions found"`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I could not find any transactions in this statement.",
			wantErr: true,
		},
		{
			name:    "trailing text after json",
			raw:     `[{"description": "a"}] hope this helps`,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtractionResponse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrMalformedExtractionResponse)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseExtractionResponse_KeepsNumbersExact(t *testing.T) {
	got, err := ParseExtractionResponse(`[{"debit": 1234.10}]`)
	require.NoError(t, err)

	rec := got[0].(map[string]any)
	assert.Equal(t, json.Number("1234.10"), rec["debit"])
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[1]", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```JSON\n[1]\n```", "[1]"},
		{"prefix ```json [1] ``` suffix", "[1]"},
		{"```json\n[1]", "[1]"},
		{"  {\"a\": 1}\n", "{\"a\": 1}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cleanModelJSON(tt.input); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
