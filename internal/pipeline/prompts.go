package pipeline

import (
	"fmt"
	"strings"
)

// extractionFields describes the record schema requested from the extractor.
var extractionFields = []struct{ name, description string }{
	{"date", "Transaction date in YYYY-MM-DD format"},
	{"description", "Transaction description or merchant name"},
	{"debit", "Withdrawal amount as a positive number. If no withdrawal, output 0.0"},
	{"credit", "Deposit amount as a positive number. If no deposit, output 0.0"},
	{"balance", "Account balance after transaction as a number"},
}

// buildExtractionPrompt wraps statement text, already truncated, in the
// extraction instructions.
func buildExtractionPrompt(text string) string {
	var b strings.Builder

	b.WriteString("You are a financial data extraction assistant. Extract ALL transactions from the following bank statement text.\n\n")

	b.WriteString("For each transaction, extract:\n")
	for _, f := range extractionFields {
		b.WriteString("- " + f.name + ": " + f.description + "\n")
	}

	b.WriteString("\nIMPORTANT:\n")
	b.WriteString("- Extract EVERY transaction you find in the text\n")
	b.WriteString("- Return a list of transactions as JSON array\n")
	b.WriteString("- Use YYYY-MM-DD date format\n")
	fmt.Fprintf(&b, "- If year is not in the text, use %d\n", FallbackStatementYear)
	b.WriteString("- Amounts should be positive numbers only\n")
	b.WriteString("- If a field is not found, use reasonable defaults\n\n")

	b.WriteString("Bank statement text:\n")
	b.WriteString(text)
	b.WriteString("\n\n")

	b.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	b.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	b.WriteString("```json\n{\n\t\"transactions\": [\n\t\t{\n")
	for i, f := range extractionFields {
		sep := ","
		if i == len(extractionFields)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "\t\t\t%q: string  // %s%s\n", f.name, f.description, sep)
	}
	b.WriteString("\t\t}\n\t]\n}\n```\n\n")

	b.WriteString("Return the output as a JSON array with key \"transactions\" containing all extracted transactions.\n")
	return b.String()
}

// truncateRunes returns at most n characters of s.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
