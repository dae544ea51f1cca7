package service

import (
	"salonledger/internal/model"

	"github.com/shopspring/decimal"
)

// CountedBreakdown is the physical count declared at closing, keyed by method.
// A missing key means the method was not counted at all.
type CountedBreakdown map[model.PaymentMethod]decimal.Decimal

// MethodReconciliation pairs the counted amount of one method with what the
// ledger says should be there. Only cash is Verifiable; every other method is
// recorded against an expected value of zero for audit purposes.
type MethodReconciliation struct {
	Method     model.PaymentMethod
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
	Verifiable bool
}

// ShiftTotals are the ledger figures gathered for one register shift.
type ShiftTotals struct {
	InitialBalance decimal.Decimal
	CashSales      decimal.Decimal // cash sales minus cash refunds on the register account
	Suprimentos    decimal.Decimal
	Sangrias       decimal.Decimal
}

// Expected is initial + cash sales + suprimentos - sangrias.
func (t ShiftTotals) Expected() decimal.Decimal {
	return money(t.InitialBalance.Add(t.CashSales).Add(t.Suprimentos).Sub(t.Sangrias))
}

// Reconciliation is the result of comparing a count against the shift totals.
type Reconciliation struct {
	ExpectedBalance decimal.Decimal
	ActualBalance   decimal.Decimal
	TotalDifference decimal.Decimal
	HasDiscrepancy  bool
	Severity        model.DiscrepancySeverity
	Methods         []MethodReconciliation
}

// reconcile is pure: same totals and count always give the same result.
// Method rows follow model.PaymentMethods order.
func reconcile(totals ShiftTotals, counted CountedBreakdown) Reconciliation {
	expected := totals.Expected()
	actual := decimal.Zero
	rows := make([]MethodReconciliation, 0, len(counted))
	for _, m := range model.PaymentMethods {
		amount, ok := counted[m]
		if !ok {
			continue
		}
		amount = money(amount)
		actual = actual.Add(amount)

		row := MethodReconciliation{Method: m, Expected: decimal.Zero, Actual: amount}
		if m == model.MethodCash {
			row.Expected = expected
			row.Verifiable = true
		}
		row.Difference = row.Actual.Sub(row.Expected)
		rows = append(rows, row)
	}

	diff := actual.Sub(expected)
	has := diff.Abs().GreaterThan(discrepancyTolerance)
	return Reconciliation{
		ExpectedBalance: expected,
		ActualBalance:   actual,
		TotalDifference: diff,
		HasDiscrepancy:  has,
		Severity:        classifyDiscrepancy(diff, expected, has),
		Methods:         rows,
	}
}

var warningRatio = decimal.RequireFromString("0.05")

// classifyDiscrepancy: NONE within tolerance, WARNING up to 5% of expected,
// CRITICAL above that or whenever nothing was expected.
func classifyDiscrepancy(diff, expected decimal.Decimal, has bool) model.DiscrepancySeverity {
	if !has {
		return model.SeverityNone
	}
	if !expected.IsPositive() {
		return model.SeverityCritical
	}
	if diff.Abs().LessThanOrEqual(expected.Mul(warningRatio)) {
		return model.SeverityWarning
	}
	return model.SeverityCritical
}
