// Package pipeline wires the statement analysis stages together: source
// reading, table normalization, free-text extraction, categorization,
// analytics and insights.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/categorizer"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/sources"
)

// Analyzer runs the full pipeline for one file or document at a time.
// It holds no per-run state and is safe for concurrent use as long as its
// collaborators are.
type Analyzer struct {
	adapter     *Adapter
	categorizer Categorizer
	recorder    RunRecorder
	now         func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithExtractor enables the free-text fallback for PDFs.
func WithExtractor(e TextExtractor) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.adapter = NewAdapter(e, func() time.Time { return a.now() })
		}
	}
}

// WithCategorizer replaces the default rule table.
func WithCategorizer(c Categorizer) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.categorizer = c
		}
	}
}

// WithRunRecorder audits every AnalyzeFile call.
func WithRunRecorder(r RunRecorder) Option {
	return func(a *Analyzer) { a.recorder = r }
}

// WithClock fixes "today" for budget projection and date fallback.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer builds an Analyzer using the default categorizer and no
// extractor unless options say otherwise.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		categorizer: categorizer.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExtractionEnabled reports whether PDFs without usable tables can fall back
// to free-text extraction.
func (a *Analyzer) ExtractionEnabled() bool {
	return a.adapter != nil
}

func (a *Analyzer) documentSteps() []PipelineStep {
	return []PipelineStep{
		&NormalizeTablesStep{},
		&ExtractTextStep{adapter: a.adapter},
		&CategorizeStep{categorizer: a.categorizer},
		&AnalyzeStep{},
		&InsightsStep{now: a.now},
	}
}

// AnalyzeFile reads path as kind and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, kind sources.Kind) (*Report, error) {
	log := logger.FromContext(ctx).With().Str("source", filepath.Base(path)).Str("kind", string(kind)).Logger()
	ctx = logger.WithContext(ctx, log)

	runID := a.startRun(ctx, filepath.Base(path), kind)

	state := &PipelineState{Path: path, Kind: kind}
	steps := append([]PipelineStep{&ReadSourceStep{}}, a.documentSteps()...)
	if err := NewPipeline(steps...).Execute(ctx, state); err != nil {
		a.failRun(ctx, runID, err)
		log.Error().Err(err).Msg("Analysis failed")
		return nil, fmt.Errorf("AnalyzeFile: %w", err)
	}

	a.finishRun(ctx, runID, state)
	log.Info().
		Int("count", len(state.Categorized)).
		Int("skipped", domain.Skipped(state.Warnings)).
		Int("insights", len(state.Analysis.Insights)).
		Msg("Analysis complete")
	return state.report(), nil
}

// AnalyzeDocument analyzes an already decoded document. It is not audited.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, doc *sources.Document) (*Report, error) {
	if doc == nil {
		return nil, errors.New("AnalyzeDocument: nil document")
	}
	state := &PipelineState{Kind: doc.Kind, Document: doc}
	if err := NewPipeline(a.documentSteps()...).Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("AnalyzeDocument: %w", err)
	}
	return state.report(), nil
}

func (a *Analyzer) startRun(ctx context.Context, source string, kind sources.Kind) string {
	if a.recorder == nil {
		return ""
	}
	runID, err := a.recorder.StartRun(ctx, source, string(kind))
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Could not record analysis run start")
		return ""
	}
	return runID
}

func (a *Analyzer) finishRun(ctx context.Context, runID string, state *PipelineState) {
	if a.recorder == nil || runID == "" {
		return
	}
	if err := a.recorder.MarkRunSucceeded(ctx, runID, len(state.Categorized), len(state.Warnings)); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("run_id", runID).Msg("Could not record analysis run success")
	}
}

func (a *Analyzer) failRun(ctx context.Context, runID string, runErr error) {
	if a.recorder == nil || runID == "" {
		return
	}
	a.recorder.MarkRunFailed(ctx, runID, runErr)
}

// ErrorMessage renders err for a user. Pipeline wrapping is dropped when
// the cause is one of the domain error kinds.
func ErrorMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}
