package categorizer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category names with special meaning.
const (
	CategoryIncome      = "Income"
	CategoryOtherIncome = "Other Income"
	CategoryOther       = "Other"
)

// CategoryRules is one category with its patterns, as written in a rules file.
// Patterns are regular expressions matched case-insensitively anywhere in the description.
type CategoryRules struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

// DefaultRules is the built-in table. Order matters: for debits the first
// matching category wins, so "walmart" is Groceries and "gas bill" is
// Transportation.
var DefaultRules = []CategoryRules{
	{
		Category: "Food & Dining",
		Patterns: []string{
			`starbucks`, `mcdonald`, `subway`, `tim hortons`, `pizza`,
			`restaurant`, `cafe`, `coffee`, `uber eats`, `doordash`,
			`skip`, `food`, `dining`, `takeout`, `delivery`,
		},
	},
	{
		Category: "Groceries",
		Patterns: []string{
			`grocery`, `supermarket`, `metro`, `loblaws`, `sobeys`,
			`walmart`, `costco`, `fresh`, `market`, `food basics`,
		},
	},
	{
		Category: "Transportation",
		Patterns: []string{
			`gas`, `shell`, `esso`, `petro`, `uber`, `taxi`,
			`bus`, `transit`, `parking`, `car wash`, `automotive`,
		},
	},
	{
		Category: "Entertainment",
		Patterns: []string{
			`netflix`, `spotify`, `amazon prime`, `disney`, `hulu`,
			`cinema`, `movie`, `theatre`, `gaming`, `steam`,
		},
	},
	{
		Category: "Shopping",
		Patterns: []string{
			`amazon`, `walmart`, `target`, `shopping`, `store`,
			`purchase`, `retail`, `mall`, `clothing`, `electronics`,
		},
	},
	{
		Category: "Utilities",
		Patterns: []string{
			`hydro`, `electric`, `gas bill`, `water`, `internet`,
			`phone`, `cable`, `utility`, `heating`, `cooling`,
		},
	},
	{
		Category: "Healthcare",
		Patterns: []string{
			`pharmacy`, `doctor`, `medical`, `dental`, `hospital`,
			`clinic`, `health`, `medicine`, `prescription`,
		},
	},
	{
		Category: "Banking",
		Patterns: []string{
			`atm`, `withdrawal`, `bank`, `fee`, `charge`,
			`transfer`, `interest`, `service charge`,
		},
	},
	{
		Category: CategoryIncome,
		Patterns: []string{
			`payroll`, `salary`, `deposit`, `income`, `wages`,
			`pay`, `transfer received`, `refund`,
		},
	},
}

// LoadRules reads an ordered rule list from a YAML file:
//
//   - category: Food & Dining
//     patterns: [starbucks, coffee]
//   - category: Income
//     patterns: [payroll]
func LoadRules(path string) ([]CategoryRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRules: reading %s: %w", path, err)
	}

	var entries []CategoryRules
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("LoadRules: parsing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("LoadRules: %s defines no categories", path)
	}
	return entries, nil
}
