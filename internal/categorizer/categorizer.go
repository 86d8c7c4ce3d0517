// Package categorizer assigns spending categories to transactions with an
// ordered table of regular expressions. The first matching category wins.
package categorizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/domain"
)

type rule struct {
	category string
	patterns []*regexp.Regexp
}

// Categorizer is immutable after construction and safe for concurrent use.
type Categorizer struct {
	expense []rule
	income  []*regexp.Regexp
}

var defaultCategorizer = mustNew(DefaultRules)

// Default returns the categorizer built from DefaultRules.
func Default() *Categorizer {
	return defaultCategorizer
}

// New compiles entries in order. The entry named Income supplies the income
// patterns; every other entry is an expense category.
func New(entries []CategoryRules) (*Categorizer, error) {
	c := &Categorizer{}
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Category)
		if name == "" {
			return nil, fmt.Errorf("New: category with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("New: duplicate category %q", name)
		}
		seen[name] = true

		compiled := make([]*regexp.Regexp, 0, len(entry.Patterns))
		for _, p := range entry.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("New: category %q: pattern %q: %w", name, p, err)
			}
			compiled = append(compiled, re)
		}

		if name == CategoryIncome {
			c.income = compiled
			continue
		}
		c.expense = append(c.expense, rule{category: name, patterns: compiled})
	}

	return c, nil
}

func mustNew(entries []CategoryRules) *Categorizer {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Category returns the category for a description and direction.
// Credits are Income or Other Income; debits take the first matching
// expense category, or Other.
func (c *Categorizer) Category(description string, typ domain.TxType) string {
	if typ == domain.Credit {
		if matchAny(c.income, description) {
			return CategoryIncome
		}
		return CategoryOtherIncome
	}

	for _, r := range c.expense {
		if matchAny(r.patterns, description) {
			return r.category
		}
	}
	return CategoryOther
}

// Categorize returns a copy of tx with Category set. tx itself is not modified.
func (c *Categorizer) Categorize(tx domain.Transaction) domain.Transaction {
	out := tx.Clone()
	out.Category = c.Category(tx.Description, tx.Type)
	return out
}

// CategorizeBatch categorizes copies of txs, preserving order.
func (c *Categorizer) CategorizeBatch(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = c.Categorize(tx)
	}
	return out
}

// Categories lists the expense categories in match order.
func (c *Categorizer) Categories() []string {
	names := make([]string, len(c.expense))
	for i, r := range c.expense {
		names[i] = r.category
	}
	return names
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
