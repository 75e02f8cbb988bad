// Package prompt loads per-language extraction prompt templates and
// substitutes scanned text and project metadata into them.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sudanerr/formscan/constants"
	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/report"
)

// Template names, one JSON file per language under <dir>/<lang>/.
const (
	TemplateCustomForm = "custom-prompts"
	TemplatePDFForm    = "pdf-prompts"
)

// Static instructional fragments substituted for their placeholders.
const (
	tableProcessingHint = "Detect and structure tables by identifying columns (e.g., Item, Quantity, Price) and rows."
	metadataLinkHint    = "Ensure metadata fields like 'Project Objectives' and 'Beneficiaries' are linked correctly."
)

var (
	placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	controlRe     = regexp.MustCompile(`[\x00-\x1F]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// CleanText strips control characters, collapses whitespace runs and
// trims, preparing OCR output for substitution.
func CleanText(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Vars carries everything a template may reference.
type Vars struct {
	CleanedText string
	Metadata    *report.ProjectMetadata
	Totals      report.Totals
}

// Builder loads templates from a locales directory.
type Builder struct {
	dir string
}

func NewBuilder(dir string) *Builder {
	return &Builder{dir: dir}
}

type templateFile struct {
	Prompt string `json:"prompt"`
}

// Build loads <dir>/<language>/<name>.json and substitutes all named
// placeholders in a single pass, so a substituted value containing a
// placeholder token is never substituted again. A missing template for
// the requested language is a hard failure, never a silent fallback.
func (b *Builder) Build(name, language string, vars Vars) (string, error) {
	path := filepath.Join(b.dir, language, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", common.NewAppError("TEMPLATE_LOAD",
			fmt.Sprintf("no %s template for language %q", name, language), common.ErrTemplateLoad)
	}
	var tf templateFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return "", common.NewAppError("TEMPLATE_LOAD",
			fmt.Sprintf("malformed %s template for language %q: %v", name, language, err), common.ErrTemplateLoad)
	}
	if tf.Prompt == "" {
		return "", common.NewAppError("TEMPLATE_LOAD",
			fmt.Sprintf("%s template for language %q has no prompt field", name, language), common.ErrTemplateLoad)
	}

	values := b.values(vars)
	out := placeholderRe.ReplaceAllStringFunc(tf.Prompt, func(token string) string {
		key := token[2 : len(token)-1]
		if v, ok := values[key]; ok {
			return v
		}
		return token // unknown placeholders pass through untouched
	})
	return out, nil
}

func (b *Builder) values(vars Vars) map[string]string {
	meta := vars.Metadata
	objectives := constants.NotProvided
	beneficiaries := constants.NotProvided
	errID := constants.NotProvided
	if meta != nil {
		if meta.ProjectObjectives != "" {
			objectives = meta.ProjectObjectives
		}
		if meta.IntendedBeneficiaries != "" {
			beneficiaries = meta.IntendedBeneficiaries
		}
		if meta.ERRID != "" {
			errID = meta.ERRID
		}
	}

	return map[string]string{
		"cleanedText":                            CleanText(vars.CleanedText),
		"projectMetadata.project_objectives":     objectives,
		"projectMetadata.intended_beneficiaries": beneficiaries,
		"projectMetadata.err_id":                 errID,
		"financial_summary.total_grant_received": string(report.FormatDecimal(vars.Totals.TotalGrantReceived)),
		"financial_summary.total_expenses":       string(report.FormatDecimal(vars.Totals.TotalExpenses)),
		"financial_summary.remainder":            string(report.FormatDecimal(vars.Totals.Remainder)),
		"expenses.activity":                      report.ActivitiesSummary(meta),
		"table_processing":                       tableProcessingHint,
		"metadata_hint":                          metadataLinkHint,
	}
}
