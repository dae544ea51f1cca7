package service

import (
	"testing"

	"salonledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_Severity(t *testing.T) {
	totals := ShiftTotals{InitialBalance: dec("100"), CashSales: dec("400"), Suprimentos: dec("50"), Sangrias: dec("50")}
	cases := []struct {
		counted string
		has     bool
		want    model.DiscrepancySeverity
	}{
		{"500", false, model.SeverityNone},
		{"500.01", false, model.SeverityNone},
		{"499.98", true, model.SeverityWarning},
		{"525", true, model.SeverityWarning},
		{"475", true, model.SeverityWarning},
		{"474.99", true, model.SeverityCritical},
		{"600", true, model.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.counted, func(t *testing.T) {
			rec := reconcile(totals, CountedBreakdown{model.MethodCash: dec(tc.counted)})
			assert.True(t, rec.ExpectedBalance.Equal(dec("500")))
			assert.Equal(t, tc.has, rec.HasDiscrepancy)
			assert.Equal(t, tc.want, rec.Severity)
			assert.True(t, rec.TotalDifference.Equal(dec(tc.counted).Sub(dec("500"))))
		})
	}
}

func TestReconcile_NothingExpectedIsCritical(t *testing.T) {
	rec := reconcile(ShiftTotals{}, CountedBreakdown{model.MethodCash: dec("0.50")})
	assert.True(t, rec.HasDiscrepancy)
	assert.Equal(t, model.SeverityCritical, rec.Severity)
}

func TestReconcile_MethodRowsFollowDisplayOrder(t *testing.T) {
	rec := reconcile(ShiftTotals{InitialBalance: dec("10")}, CountedBreakdown{
		model.MethodWallet: dec("5"),
		model.MethodCard:   dec("7"),
		model.MethodCash:   dec("10"),
	})
	require.Len(t, rec.Methods, 3)
	assert.Equal(t, model.MethodCash, rec.Methods[0].Method)
	assert.Equal(t, model.MethodCard, rec.Methods[1].Method)
	assert.Equal(t, model.MethodWallet, rec.Methods[2].Method)
	assert.True(t, rec.Methods[0].Difference.IsZero())
	assert.True(t, rec.Methods[2].Difference.Equal(dec("5")))
	assert.True(t, rec.ActualBalance.Equal(dec("22")))
}
