package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
)

// ParseExtractionResponse pulls the record list out of an extractor reply.
// A fenced ```json block wins over the rest of the reply; otherwise the
// whole reply is parsed. The JSON must be a list, or an object whose
// "transactions" key is a list. Elements are returned untouched; numbers
// arrive as json.Number.
func ParseExtractionResponse(raw string) ([]any, error) {
	body := cleanModelJSON(raw)
	if body == "" {
		return nil, domain.MalformedExtractionResponse(nil, "Empty response from extractor")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, domain.MalformedExtractionResponse(err, "Failed to parse extractor response as JSON")
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, domain.MalformedExtractionResponse(err, "Unexpected data after JSON in extractor response")
	}

	switch v := parsed.(type) {
	case []any:
		return v, nil
	case map[string]any:
		txs, ok := v["transactions"]
		if !ok {
			return nil, domain.MalformedExtractionResponse(nil, "Unexpected response format from extractor: object without \"transactions\"")
		}
		list, ok := txs.([]any)
		if !ok {
			return nil, domain.MalformedExtractionResponse(nil, fmt.Sprintf("Unexpected response format from extractor: \"transactions\" is %s", jsonKind(txs)))
		}
		return list, nil
	default:
		return nil, domain.MalformedExtractionResponse(nil, fmt.Sprintf("Unexpected response format from extractor: top level is %s", jsonKind(parsed)))
	}
}

// cleanModelJSON strips Markdown fences around a model reply. A ```json
// block anywhere in the reply is preferred; a reply that starts with a bare
// fence is unwrapped; anything else is returned trimmed.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if start := strings.Index(s, "```json"); start != -1 {
		s = s[start+len("```json"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```lang).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = s[idx+1:]
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	return strings.TrimSpace(s)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
