package report

import (
	"strings"

	"github.com/sudanerr/formscan/constants"
)

// Totals are the authoritative figures recomputed from raw line items.
// The model's self-reported summary is never trusted.
type Totals struct {
	TotalGrantReceived float64
	TotalExpenses      float64
	Remainder          float64
}

// GrantTotal sums frequency * unitPrice over the project's budgeted
// expenses. Non-numeric fields coerce to 0.
func GrantTotal(meta *ProjectMetadata) float64 {
	if meta == nil {
		return 0
	}
	var sum float64
	for _, e := range meta.Expenses {
		sum += e.Frequency.Float() * e.UnitPrice.Float()
	}
	return sum
}

// ExpenseTotal sums the amounts of the extracted expense line items.
func ExpenseTotal(items []ExpenseLineItem) float64 {
	var sum float64
	for _, e := range items {
		sum += e.Amount.Float()
	}
	return sum
}

// ActivitiesSummary renders the project's planned activities as a
// single "<activity> at <place>" list for prompts and back-fill.
func ActivitiesSummary(meta *ProjectMetadata) string {
	if meta == nil || len(meta.PlannedActivities) == 0 {
		return constants.NotProvided
	}
	parts := make([]string, 0, len(meta.PlannedActivities))
	for _, a := range meta.PlannedActivities {
		opt := a.SelectedOption
		if opt == "" {
			opt = "Unknown"
		}
		place := a.PlaceOfOperation
		if place == "" {
			place = "Unknown location"
		}
		parts = append(parts, opt+" at "+place)
	}
	return strings.Join(parts, ", ")
}

// Reconcile recomputes the financial summary of rep from raw line items
// and overwrites whatever the extraction step produced. It also
// back-fills placeholder err_id and expense activities from project
// metadata. Applying it twice with the same inputs is a no-op.
func Reconcile(rep *StructuredReport, meta *ProjectMetadata) Totals {
	t := Totals{
		TotalGrantReceived: GrantTotal(meta),
		TotalExpenses:      ExpenseTotal(rep.Expenses),
	}
	t.Remainder = t.TotalGrantReceived - t.TotalExpenses

	rep.FinancialSummary.TotalExpenses = FormatDecimal(t.TotalExpenses)
	rep.FinancialSummary.TotalGrantReceived = FormatDecimal(t.TotalGrantReceived)
	rep.FinancialSummary.Remainder = FormatDecimal(t.Remainder)

	if constants.IsPlaceholder(rep.ErrID) {
		if meta != nil && meta.ERRID != "" {
			rep.ErrID = meta.ERRID
		} else {
			rep.ErrID = "Not available"
		}
	}

	activities := ActivitiesSummary(meta)
	for i := range rep.Expenses {
		if constants.IsPlaceholder(rep.Expenses[i].Activity) {
			rep.Expenses[i].Activity = activities
		}
	}
	return t
}
