package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/report"
)

func writeTemplate(t *testing.T, dir, lang, name, prompt string) {
	t.Helper()
	langDir := filepath.Join(dir, lang)
	require.NoError(t, os.MkdirAll(langDir, 0o755))
	body := `{"prompt": ` + jsonString(prompt) + `}`
	require.NoError(t, os.WriteFile(filepath.Join(langDir, name+".json"), []byte(body), 0o644))
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestCleanText(t *testing.T) {
	// Control characters are stripped outright (not replaced by spaces),
	// then whitespace runs collapse and the ends are trimmed.
	assert.Equal(t, "ab c", CleanText("  a\x00b   c\t\n"))
}

func TestBuildSubstitutesAll(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "en", TemplateCustomForm,
		"Text: ${cleanedText}\nObjectives: ${projectMetadata.project_objectives}\n"+
			"ERR: ${projectMetadata.err_id}\nGrant: ${financial_summary.total_grant_received}\n"+
			"Activities: ${expenses.activity}\nTables: ${table_processing}")

	b := NewBuilder(dir)
	out, err := b.Build(TemplateCustomForm, "en", Vars{
		CleanedText: "  some   ocr text ",
		Metadata: &report.ProjectMetadata{
			ERRID:             "ERR-9",
			ProjectObjectives: "Feed families",
			PlannedActivities: []report.PlannedActivity{
				{SelectedOption: "Kitchen", PlaceOfOperation: "Omdurman"},
			},
		},
		Totals: report.Totals{TotalGrantReceived: 200, TotalExpenses: 150, Remainder: 50},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Text: some ocr text")
	assert.Contains(t, out, "Objectives: Feed families")
	assert.Contains(t, out, "ERR: ERR-9")
	assert.Contains(t, out, "Grant: 200")
	assert.Contains(t, out, "Activities: Kitchen at Omdurman")
	assert.Contains(t, out, "Tables: Detect and structure tables")
}

func TestBuildMissingMetadataFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "en", TemplateCustomForm,
		"Objectives: ${projectMetadata.project_objectives}; Beneficiaries: ${projectMetadata.intended_beneficiaries}")

	b := NewBuilder(dir)
	out, err := b.Build(TemplateCustomForm, "en", Vars{Metadata: nil})
	require.NoError(t, err)
	assert.Equal(t, "Objectives: Not provided; Beneficiaries: Not provided", out)
}

func TestBuildSinglePass(t *testing.T) {
	// A substituted value containing a placeholder token must not be
	// substituted again.
	dir := t.TempDir()
	writeTemplate(t, dir, "en", TemplateCustomForm, "Text: ${cleanedText} ERR: ${projectMetadata.err_id}")

	b := NewBuilder(dir)
	out, err := b.Build(TemplateCustomForm, "en", Vars{
		CleanedText: "contains ${projectMetadata.err_id} literally",
		Metadata:    &report.ProjectMetadata{ERRID: "ERR-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Text: contains ${projectMetadata.err_id} literally ERR: ERR-1", out)
}

func TestBuildUnknownPlaceholderPassesThrough(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "en", TemplateCustomForm, "keep ${something.else} intact")

	b := NewBuilder(dir)
	out, err := b.Build(TemplateCustomForm, "en", Vars{})
	require.NoError(t, err)
	assert.Equal(t, "keep ${something.else} intact", out)
}

func TestBuildMissingTemplate(t *testing.T) {
	b := NewBuilder(t.TempDir())
	_, err := b.Build(TemplateCustomForm, "fr", Vars{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTemplateLoad))
}

func TestShippedTemplatesLoad(t *testing.T) {
	b := NewBuilder("../../locales")
	for _, lang := range []string{"en", "ar"} {
		for _, name := range []string{TemplateCustomForm, TemplatePDFForm} {
			out, err := b.Build(name, lang, Vars{CleanedText: "sample"})
			require.NoError(t, err, "%s/%s", lang, name)
			assert.Contains(t, out, "sample")
			assert.NotContains(t, out, "${cleanedText}")
		}
	}
}
