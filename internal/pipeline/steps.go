package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-analyzer/internal/analytics"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/sources"
	"github.com/dvloznov/statement-analyzer/internal/tabular"
)

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Step 1: ReadSourceStep opens the file and decodes it into a document.
type ReadSourceStep struct{}

func (s *ReadSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	doc, err := sources.Read(ctx, state.Path, state.Kind)
	if err != nil {
		return err
	}
	state.Document = doc
	return nil
}

// Step 2: NormalizeTablesStep runs strict mode over spreadsheet exports and
// flexible mode over the tables found in a PDF.
type NormalizeTablesStep struct{}

func (s *NormalizeTablesStep) Execute(ctx context.Context, state *PipelineState) error {
	doc := state.Document
	if doc == nil {
		return fmt.Errorf("NormalizeTablesStep: no document")
	}

	if doc.Kind.Tabular() {
		if len(doc.Tables) != 1 {
			return domain.UnreadableSource(nil, "File is empty")
		}
		txs, warnings, err := tabular.NormalizeStrict(ctx, doc.Tables[0])
		state.Warnings = append(state.Warnings, warnings...)
		if err != nil {
			return err
		}
		state.Transactions = txs
		return nil
	}

	txs, warnings, err := tabular.NormalizeTables(ctx, doc.Tables)
	state.Warnings = append(state.Warnings, warnings...)
	switch {
	case err == nil:
		state.Transactions = txs
	case errors.Is(err, domain.ErrAmbiguousTable), errors.Is(err, domain.ErrNoValidTransactions):
		state.TableErr = err
	default:
		return err
	}
	return nil
}

// Step 3: ExtractTextStep falls back to the extraction adapter when the
// tables of a PDF yielded nothing.
type ExtractTextStep struct {
	adapter *Adapter
}

func (s *ExtractTextStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Transactions) > 0 {
		return nil
	}
	if s.adapter == nil {
		if state.TableErr != nil {
			return state.TableErr
		}
		return domain.NoValidTransactions("")
	}

	log := logger.FromContext(ctx)
	log.Info().AnErr("table_err", state.TableErr).Msg("No usable tables, extracting from text")

	txs, warnings, err := s.adapter.Extract(ctx, state.Document.Text)
	state.Warnings = append(state.Warnings, warnings...)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// Step 4: CategorizeStep assigns categories on copies of the normalized records.
type CategorizeStep struct {
	categorizer Categorizer
}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Categorized = s.categorizer.CategorizeBatch(state.Transactions)
	return nil
}

// Step 5: AnalyzeStep computes the statistics.
type AnalyzeStep struct{}

func (s *AnalyzeStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Categorized) == 0 {
		return domain.NoValidTransactions("")
	}
	state.Analysis = analytics.Analyze(state.Categorized)
	return nil
}

// Step 6: InsightsStep appends the insights to the analysis.
type InsightsStep struct {
	now func() time.Time
}

func (s *InsightsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Analysis.Insights = analytics.GenerateInsights(state.Categorized, state.Analysis, civil.DateOf(s.now()))
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
