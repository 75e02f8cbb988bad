package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReportJSONSchema returns the schema for a single structured
// report as a generic map (JSON-Schema draft 2020-12 subset). The
// schema is deliberately lenient: models write money values as strings
// or bare numbers depending on mood, and handwritten forms leave most
// fields blank, so everything is optional and decimals accept both
// representations.
func BuildReportJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           reportProps(),
	}
}

// BuildFormsJSONSchema returns the schema for a bulk response, an
// object whose "forms" array holds one report per detected form.
func BuildFormsJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"forms": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
					"properties":           reportProps(),
				},
			},
		},
		"required": []string{"forms"},
	}
}

func reportProps() map[string]any {
	return map[string]any{
		"date":   stringProp(),
		"err_id": stringProp(),
		"expenses": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": true,
				"properties": map[string]any{
					"activity":       stringProp(),
					"description":    stringProp(),
					"payment_date":   stringProp(),
					"seller":         stringProp(),
					"payment_method": stringProp(),
					"receipt_no":     stringProp(),
					"amount":         decimalProp(),
				},
			},
		},
		"financial_summary": map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"properties": map[string]any{
				"total_expenses":       decimalProp(),
				"total_grant_received": decimalProp(),
				"total_other_sources":  decimalProp(),
				"remainder":            decimalProp(),
			},
		},
		"additional_questions": map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"properties": map[string]any{
				"excess_expenses": stringProp(),
				"surplus_use":     stringProp(),
				"lessons_learned": stringProp(),
				"training_needs":  stringProp(),
			},
		},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func decimalProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
