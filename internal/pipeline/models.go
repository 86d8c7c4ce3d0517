package pipeline

import (
	"github.com/dvloznov/statement-analyzer/internal/analytics"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/sources"
)

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Path     string
	Kind     sources.Kind
	Document *sources.Document

	// TableErr is the normalizer failure for a PDF, kept so the text
	// fallback can report it when no extractor is configured.
	TableErr error

	Transactions []domain.Transaction // as normalized
	Categorized  []domain.Transaction // copies with categories set
	Warnings     []domain.Warning
	Analysis     *analytics.Result
}

// Report is the outcome of one analysis.
type Report struct {
	Transactions []domain.Transaction `json:"transactions"`
	Analysis     *analytics.Result    `json:"analysis"`
	Count        int                  `json:"count"`
	Warnings     []domain.Warning     `json:"warnings"`
}

func (s *PipelineState) report() *Report {
	warnings := s.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return &Report{
		Transactions: s.Categorized,
		Analysis:     s.Analysis,
		Count:        len(s.Categorized),
		Warnings:     warnings,
	}
}
