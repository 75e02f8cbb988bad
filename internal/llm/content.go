package llm

import (
	"strings"

	"github.com/sudanerr/formscan/internal/common"
)

// CleanContent strips the wrapping models like to add around JSON:
// leading/trailing whitespace, markdown code fences, and any prose
// before the first '{' or after the last '}'. An empty response or one
// with no JSON object in it is an extraction failure.
func CleanContent(content string) (string, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return "", common.NewAppError("EXTRACT", "model returned an empty response", common.ErrExtraction)
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", common.NewAppError("EXTRACT", "model response contains no JSON object", common.ErrExtraction)
	}
	return s[start : end+1], nil
}
