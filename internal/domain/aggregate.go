package domain

import (
	"github.com/shopspring/decimal"
)

// ProductAggregate is the expected-vs-done quantity of one product
type ProductAggregate struct {
	Expected decimal.Decimal
	Done     decimal.Decimal
}

// FoldPlannedLines sums planned lines per product. Negative quantities are
// treated as zero so every aggregate stays non-negative.
func FoldPlannedLines(lines []PlannedLine) map[string]ProductAggregate {
	aggregates := make(map[string]ProductAggregate)
	for _, line := range lines {
		agg := aggregates[line.ProductID]
		agg.Expected = agg.Expected.Add(nonNegative(line.Expected))
		agg.Done = agg.Done.Add(nonNegative(line.Done))
		aggregates[line.ProductID] = agg
	}
	return aggregates
}

// Totals sums expected and done over all aggregates
func Totals(aggregates map[string]ProductAggregate) (expected, done decimal.Decimal) {
	for _, agg := range aggregates {
		expected = expected.Add(agg.Expected)
		done = done.Add(agg.Done)
	}
	return expected, done
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Reconciliation is the result of one full refresh of an operation's lines
type Reconciliation struct {
	Rows          []RealizedLineRow
	TotalExpected decimal.Decimal
	TotalDone     decimal.Decimal
}

// Reconcile folds planned lines into totals and projects realized lines into rows.
// The per-product aggregates are discarded once the totals are extracted.
func Reconcile(planned []PlannedLine, realized []RealizedLine) Reconciliation {
	expected, done := Totals(FoldPlannedLines(planned))
	return Reconciliation{
		Rows:          ProjectRows(realized),
		TotalExpected: expected,
		TotalDone:     done,
	}
}

// ProgressPercent returns round(100 * done / expected), rounding halves up,
// and 0 when nothing is expected.
func ProgressPercent(expected, done decimal.Decimal) int64 {
	if !expected.IsPositive() {
		return 0
	}
	return done.Mul(decimal.NewFromInt(100)).Div(expected).Round(0).IntPart()
}
