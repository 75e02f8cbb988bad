package constants

import "strings"

// Supported report languages (ISO-639-1).
const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

// LanguageHints is passed to the OCR provider; Arabic first on purpose,
// most scanned forms are handwritten Arabic.
var LanguageHints = []string{LangArabic, LangEnglish}

// PlaceholderValues are strings the extraction model emits when it could
// not find a field. Values matched here are back-filled from project
// metadata during reconciliation. Comparison trims surrounding space.
var PlaceholderValues = map[string]struct{}{
	"":              {},
	"Not available": {},
	"غير متوفر":     {},
}

// IsPlaceholder reports whether s is a model placeholder value.
func IsPlaceholder(s string) bool {
	_, ok := PlaceholderValues[strings.TrimSpace(s)]
	return ok
}

// NotProvided is substituted into prompts for absent metadata fields.
const NotProvided = "Not provided"
