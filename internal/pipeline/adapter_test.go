package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExtractor is a TextExtractor that records prompts and replays a canned reply.
type mockExtractor struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	prompts      []string
}

func (m *mockExtractor) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return `{"transactions": []}`, nil
}

func replying(reply string) *mockExtractor {
	return &mockExtractor{CompleteFunc: func(context.Context, string) (string, error) { return reply, nil }}
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
}

func TestAdapter_Extract(t *testing.T) {
	ext := replying("```json\n" + `{"transactions": [
		{"date": "2024-02-01", "description": "Netflix", "debit": "15.99", "credit": "0", "balance": "500"},
		{"date": "Feb 2", "description": "Salary", "debit": 0, "credit": 3000, "balance": 3500}
	]}` + "\n```")

	txs, warnings, err := NewAdapter(ext, fixedClock).Extract(context.Background(), "statement text")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2025-03-14", txs[1].Date.String())
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningDateDefaulted, warnings[0].Kind)

	require.Len(t, ext.prompts, 1)
	assert.Contains(t, ext.prompts[0], "statement text")
	assert.Contains(t, ext.prompts[0], "If year is not in the text, use 2024")
	for _, field := range []string{"date", "description", "debit", "credit", "balance"} {
		assert.Contains(t, ext.prompts[0], "- "+field+": ")
	}
}

func TestAdapter_CapsText(t *testing.T) {
	ext := replying(`[{"date": "2024-02-01", "description": "x", "debit": 1, "credit": 0}]`)

	text := strings.Repeat("é", MaxExtractionChars) + "TAIL-MARKER"
	_, _, err := NewAdapter(ext, fixedClock).Extract(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, ext.prompts, 1)
	assert.NotContains(t, ext.prompts[0], "TAIL-MARKER")
	assert.Equal(t, MaxExtractionChars, strings.Count(ext.prompts[0], "é"))
}

func TestAdapter_ExtractorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	ext := &mockExtractor{CompleteFunc: func(context.Context, string) (string, error) { return "", boom }}

	_, _, err := NewAdapter(ext, fixedClock).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ext.prompts, 1, "no retries")
}

func TestAdapter_MalformedResponse(t *testing.T) {
	_, _, err := NewAdapter(replying(`{"rows": []}`), fixedClock).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrMalformedExtractionResponse)
}

func TestAdapter_NoRecords(t *testing.T) {
	_, _, err := NewAdapter(replying(`[]`), fixedClock).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrNoValidTransactions)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "żó", truncateRunes("żółw", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
