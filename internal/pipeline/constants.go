package pipeline

// Default values for extraction and run auditing.
const (
	// DefaultModelName is the default Gemini model used for free-text extraction.
	DefaultModelName = "gemini-2.5-flash"

	// MaxExtractionChars caps the document text sent to the extractor.
	MaxExtractionChars = 15000

	// FallbackStatementYear is what the extractor is told to assume when a
	// statement omits the year.
	FallbackStatementYear = 2024

	// ExtractionSource names extracted records in warnings and errors.
	ExtractionSource = "PDF"
)
