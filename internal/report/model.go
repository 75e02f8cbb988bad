package report

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Decimal is a numeric-as-string wire value. Prompts ask the model for
// string amounts but it sometimes emits bare numbers; both decode. It
// always marshals back as a string.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	*d = Decimal(string(b))
	return nil
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Float coerces the value to a float64. Like the form UI's parseFloat,
// it parses the longest valid leading numeric prefix and yields 0 when
// there is none.
func (d Decimal) Float() float64 {
	s := strings.TrimSpace(string(d))
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatDecimal renders a computed total back into wire form.
func FormatDecimal(v float64) Decimal {
	return Decimal(strconv.FormatFloat(v, 'f', -1, 64))
}

// ExpenseLineItem is one reimbursable expense row of a report.
type ExpenseLineItem struct {
	Activity      string  `json:"activity"`
	Description   string  `json:"description"`
	PaymentDate   string  `json:"payment_date"`
	Seller        string  `json:"seller"`
	PaymentMethod string  `json:"payment_method"`
	ReceiptNo     string  `json:"receipt_no"`
	Amount        Decimal `json:"amount"`
}

// FinancialSummary carries the report totals. Remainder always equals
// total_grant_received - total_expenses after reconciliation.
type FinancialSummary struct {
	TotalExpenses      Decimal `json:"total_expenses"`
	TotalGrantReceived Decimal `json:"total_grant_received"`
	TotalOtherSources  Decimal `json:"total_other_sources"`
	Remainder          Decimal `json:"remainder"`
}

// AdditionalQuestions holds the free-text answers at the bottom of the
// paper form.
type AdditionalQuestions struct {
	ExcessExpenses string `json:"excess_expenses"`
	SurplusUse     string `json:"surplus_use"`
	LessonsLearned string `json:"lessons_learned"`
	TrainingNeeds  string `json:"training_needs"`
}

// StructuredReport is the top-level extraction result for one scanned
// form. ProjectMetadata and FileURL are filled in by the pipeline after
// reconciliation; the extraction model never sees them.
type StructuredReport struct {
	ErrID               string              `json:"err_id"`
	Date                string              `json:"date"`
	Expenses            []ExpenseLineItem   `json:"expenses"`
	FinancialSummary    FinancialSummary    `json:"financial_summary"`
	AdditionalQuestions AdditionalQuestions `json:"additional_questions"`

	ProjectMetadata *ProjectMetadata `json:"projectMetadata,omitempty"`
	FileURL         string           `json:"fileUrl,omitempty"`
}

// PlannedActivity is one activity the project committed to in its
// application.
type PlannedActivity struct {
	SelectedOption   string `json:"selectedOption"`
	PlaceOfOperation string `json:"placeOfOperation"`
}

// BudgetExpense is one budgeted line in the project application; the
// grant total is the sum of frequency * unitPrice over these.
type BudgetExpense struct {
	Activity  string  `json:"activity,omitempty"`
	Frequency Decimal `json:"frequency"`
	UnitPrice Decimal `json:"unitPrice"`
}

// ProjectMetadata is the stored project record, read-only input to the
// prompt builder and the reconciler.
type ProjectMetadata struct {
	ID                    string            `json:"id"`
	ERRID                 string            `json:"err"`
	ProjectObjectives     string            `json:"project_objectives"`
	IntendedBeneficiaries string            `json:"intended_beneficiaries"`
	PlannedActivities     []PlannedActivity `json:"planned_activities"`
	Expenses              []BudgetExpense   `json:"expenses"`
}
