package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"google.golang.org/genai"
)

// TextExtractor is the free-text extraction collaborator. It receives a
// prompt and returns the model's raw reply. Implementations give no
// guarantee about the shape of the reply.
type TextExtractor interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Categorizer assigns a category to every transaction of a batch and
// returns new copies.
type Categorizer interface {
	CategorizeBatch(txs []domain.Transaction) []domain.Transaction
}

// RunRecorder audits analysis runs. Failures are reported to the caller,
// which only logs them.
type RunRecorder interface {
	StartRun(ctx context.Context, source, kind string) (string, error)
	MarkRunSucceeded(ctx context.Context, runID string, transactions, warnings int) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)
}

// ExtractorConfig carries the credentials and endpoint of the extraction
// service. Nothing in this package reads them from the environment.
type ExtractorConfig struct {
	APIKey  string
	BaseURL string // empty for the public Gemini endpoint
	Model   string
	Timeout time.Duration
}

// GeminiExtractor is the TextExtractor backed by the Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiExtractor creates a client for cfg. It makes no network calls.
func NewGeminiExtractor(ctx context.Context, cfg ExtractorConfig) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewGeminiExtractor: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: "v1",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Complete sends prompt as a single user turn with temperature 0.
func (g *GeminiExtractor) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temperature := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("GeminiExtractor.Complete: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GeminiExtractor.Complete: empty response from model")
	}
	return text, nil
}
