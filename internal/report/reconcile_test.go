package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalUnmarshal(t *testing.T) {
	var got struct {
		A Decimal `json:"a"`
		B Decimal `json:"b"`
		C Decimal `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"150","b":42.5,"c":null}`), &got)
	require.NoError(t, err)
	assert.Equal(t, Decimal("150"), got.A)
	assert.Equal(t, Decimal("42.5"), got.B)
	assert.Equal(t, Decimal(""), got.C)
}

func TestDecimalFloat(t *testing.T) {
	cases := map[Decimal]float64{
		"150":       150,
		" 42.5 ":    42.5,
		"3000 SDG":  3000,
		"-12.25":    -12.25,
		"":          0,
		"n/a":       0,
		"1e3":       1000,
		".5":        0.5,
	}
	for in, want := range cases {
		assert.Equal(t, want, in.Float(), "input %q", in)
	}
}

func TestReconcileTotals(t *testing.T) {
	meta := &ProjectMetadata{
		Expenses: []BudgetExpense{{Frequency: "2", UnitPrice: "100"}},
	}
	rep := &StructuredReport{
		Expenses: []ExpenseLineItem{{Amount: "150"}},
		FinancialSummary: FinancialSummary{
			// wrong self-reported values get discarded
			TotalExpenses: "999",
			Remainder:     "-1",
		},
	}

	totals := Reconcile(rep, meta)

	assert.Equal(t, 200.0, totals.TotalGrantReceived)
	assert.Equal(t, 150.0, totals.TotalExpenses)
	assert.Equal(t, 50.0, totals.Remainder)
	assert.Equal(t, Decimal("200"), rep.FinancialSummary.TotalGrantReceived)
	assert.Equal(t, Decimal("150"), rep.FinancialSummary.TotalExpenses)
	assert.Equal(t, Decimal("50"), rep.FinancialSummary.Remainder)
}

func TestReconcileIdentityHolds(t *testing.T) {
	meta := &ProjectMetadata{Expenses: []BudgetExpense{
		{Frequency: "3", UnitPrice: "40.5"},
		{Frequency: "x", UnitPrice: "10"}, // coerces to 0
	}}
	rep := &StructuredReport{Expenses: []ExpenseLineItem{
		{Amount: "10"}, {Amount: "junk"}, {Amount: "2.5"},
	}}

	totals := Reconcile(rep, meta)
	assert.Equal(t, totals.TotalGrantReceived-totals.TotalExpenses, totals.Remainder)
	assert.Equal(t, 121.5, totals.TotalGrantReceived)
	assert.Equal(t, 12.5, totals.TotalExpenses)
}

func TestReconcileIdempotent(t *testing.T) {
	meta := &ProjectMetadata{
		ERRID:    "ERR-042",
		Expenses: []BudgetExpense{{Frequency: "2", UnitPrice: "100"}},
		PlannedActivities: []PlannedActivity{
			{SelectedOption: "Water distribution", PlaceOfOperation: "Omdurman"},
		},
	}
	rep := &StructuredReport{
		ErrID:    "Not available",
		Expenses: []ExpenseLineItem{{Amount: "150", Activity: "غير متوفر"}},
	}

	Reconcile(rep, meta)
	first, err := json.Marshal(rep)
	require.NoError(t, err)

	Reconcile(rep, meta)
	second, err := json.Marshal(rep)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestReconcileBackfill(t *testing.T) {
	meta := &ProjectMetadata{
		ERRID: "ERR-007",
		PlannedActivities: []PlannedActivity{
			{SelectedOption: "Communal kitchen", PlaceOfOperation: "Bahri"},
			{SelectedOption: "", PlaceOfOperation: ""},
		},
	}
	rep := &StructuredReport{
		ErrID: "  Not available ",
		Expenses: []ExpenseLineItem{
			{Activity: "", Amount: "10"},
			{Activity: "Existing activity", Amount: "20"},
		},
	}

	Reconcile(rep, meta)

	assert.Equal(t, "ERR-007", rep.ErrID)
	assert.Equal(t, "Communal kitchen at Bahri, Unknown at Unknown location", rep.Expenses[0].Activity)
	assert.Equal(t, "Existing activity", rep.Expenses[1].Activity)
}

func TestReconcileNilMetadata(t *testing.T) {
	rep := &StructuredReport{
		ErrID:    "",
		Expenses: []ExpenseLineItem{{Amount: "5"}},
	}
	totals := Reconcile(rep, nil)
	assert.Equal(t, 0.0, totals.TotalGrantReceived)
	assert.Equal(t, -5.0, totals.Remainder)
	assert.Equal(t, "Not available", rep.ErrID)
	assert.Equal(t, "Not provided", rep.Expenses[0].Activity)
}
