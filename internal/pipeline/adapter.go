package pipeline

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
)

// Adapter turns free statement text into transactions through a TextExtractor.
// It makes exactly one extractor call per Extract and never retries.
type Adapter struct {
	extractor TextExtractor
	now       func() time.Time
}

// NewAdapter wraps extractor. now supplies the fallback date for records
// whose date cannot be parsed; nil means time.Now.
func NewAdapter(extractor TextExtractor, now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{extractor: extractor, now: now}
}

// Extract sends the first MaxExtractionChars characters of text to the
// extractor and converts its reply.
func (a *Adapter) Extract(ctx context.Context, text string) ([]domain.Transaction, []domain.Warning, error) {
	log := logger.FromContext(ctx)

	capped := truncateRunes(text, MaxExtractionChars)
	log.Debug().Int("text_len", len(text)).Int("sent_len", len(capped)).Msg("Calling extractor")

	raw, err := a.extractor.Complete(ctx, buildExtractionPrompt(capped))
	if err != nil {
		return nil, nil, fmt.Errorf("Adapter.Extract: calling extractor: %w", err)
	}

	records, err := ParseExtractionResponse(raw)
	if err != nil {
		log.Error().Err(err).Int("response_len", len(raw)).Msg("Extractor response rejected")
		return nil, nil, err
	}

	txs, warnings, err := RecordsToTransactions(records, civil.DateOf(a.now()))
	for _, w := range warnings {
		log.Warn().Str("source", w.Source).Int("row", w.Row).Str("kind", string(w.Kind)).Str("reason", w.Reason).Msg("Extracted record")
	}
	if err != nil {
		return nil, warnings, err
	}

	log.Info().Int("records", len(records)).Int("transactions", len(txs)).Msg("Extracted transactions")
	return txs, warnings, nil
}
