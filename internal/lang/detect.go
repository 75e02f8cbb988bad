// Package lang classifies reconstructed OCR text as Arabic or English.
package lang

import (
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/sudanerr/formscan/constants"
)

var arabicDigits = []rune("٠١٢٣٤٥٦٧٨٩")

// NormalizeDigits remaps Arabic-Indic digits to ASCII (e.g. ٣٠٠٠ -> 3000)
// so amounts don't skew script statistics.
func NormalizeDigits(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		mapped := r
		for i, d := range arabicDigits {
			if r == d {
				mapped = rune('0' + i)
				break
			}
		}
		b.WriteRune(mapped)
	}
	return b.String()
}

// containsArabic reports whether text has any character in the Arabic
// Unicode block (U+0600–U+06FF).
func containsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// Detect returns "ar" or "en" for the given text. Script presence
// overrides the statistical detector; undetectable text defaults to
// Arabic, the primary user base.
func Detect(text string) string {
	text = NormalizeDigits(text)

	if containsArabic(text) {
		return constants.LangArabic
	}

	info := whatlanggo.Detect(text)
	switch info.Lang {
	case whatlanggo.Arb:
		return constants.LangArabic
	case whatlanggo.Eng:
		return constants.LangEnglish
	}
	return constants.LangArabic
}
