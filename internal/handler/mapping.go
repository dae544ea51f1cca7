package handler

import (
	"time"

	"salonledger/internal/cashflow"
	"salonledger/internal/dto"
	"salonledger/internal/model"
	"salonledger/internal/service"

	"github.com/google/uuid"
)

// ── Model → response mapping ──────────────────────────────────────────────────

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func tsPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ts(*t)
	return &s
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toAccountResponse(a *model.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:             a.ID.String(),
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance,
		Active:         a.Active,
		CreatedAt:      ts(a.CreatedAt),
	}
}

func toMovementResponse(m *model.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:           m.ID.String(),
		AccountID:    m.AccountID.String(),
		Direction:    string(m.Direction),
		Amount:       m.Amount,
		Method:       string(m.Method),
		SourceType:   string(m.SourceType),
		SourceRefID:  idPtr(m.SourceRefID),
		Description:  m.Description,
		BalanceAfter: m.BalanceAfter,
		ReversalOf:   idPtr(m.ReversalOf),
		OccurredAt:   ts(m.OccurredAt),
	}
}

func toRegisterResponse(r *model.CashRegister) dto.RegisterResponse {
	resp := dto.RegisterResponse{
		ID:              r.ID.String(),
		AccountID:       r.AccountID.String(),
		OpenedBy:        r.OpenedBy.String(),
		OpenedAt:        ts(r.OpenedAt),
		InitialBalance:  r.InitialBalance,
		Status:          string(r.Status),
		ClosedBy:        idPtr(r.ClosedBy),
		ClosedAt:        tsPtr(r.ClosedAt),
		ExpectedBalance: r.ExpectedBalance,
		ActualBalance:   r.ActualBalance,
		Difference:      r.Difference,
		Notes:           r.Notes,
		ClosingNotes:    r.ClosingNotes,
	}
	if r.Severity != nil {
		s := string(*r.Severity)
		resp.Severity = &s
	}
	if r.Opener != nil {
		resp.OpenedByName = r.Opener.Name
	}
	if r.Closer != nil {
		resp.ClosedByName = r.Closer.Name
	}
	return resp
}

func toAdjustmentResponse(a *model.CashRegisterMovement) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID.String(),
		RegisterID:       a.RegisterID.String(),
		Type:             string(a.Type),
		Amount:           a.Amount,
		Reason:           a.Reason,
		CreatedBy:        a.CreatedBy.String(),
		LedgerMovementID: idPtr(a.LedgerMovementID),
		CreatedAt:        ts(a.CreatedAt),
	}
}

func toCloseResponse(res *service.ClosingResult) dto.CloseRegisterResponse {
	rec := res.Reconciliation
	rows := make([]dto.MethodBreakdownResponse, len(rec.Methods))
	for i, m := range rec.Methods {
		rows[i] = dto.MethodBreakdownResponse{
			Method:     string(m.Method),
			Expected:   m.Expected,
			Actual:     m.Actual,
			Difference: m.Difference,
			Verifiable: m.Verifiable,
		}
	}
	return dto.CloseRegisterResponse{
		Register:        toRegisterResponse(res.Register),
		ExpectedBalance: rec.ExpectedBalance,
		ActualBalance:   rec.ActualBalance,
		TotalDifference: rec.TotalDifference,
		HasDiscrepancy:  rec.HasDiscrepancy,
		Severity:        string(rec.Severity),
		Breakdown:       rows,
	}
}

func toBreakdown(b dto.CountedBreakdown) service.CountedBreakdown {
	out := service.CountedBreakdown{}
	if b.Cash != nil {
		out[model.MethodCash] = *b.Cash
	}
	if b.Pix != nil {
		out[model.MethodPix] = *b.Pix
	}
	if b.Card != nil {
		out[model.MethodCard] = *b.Card
	}
	if b.Transfer != nil {
		out[model.MethodTransfer] = *b.Transfer
	}
	if b.Wallet != nil {
		out[model.MethodWallet] = *b.Wallet
	}
	return out
}

func toInstallmentResponse(i *model.SaleInstallment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:             i.ID.String(),
		SaleID:         i.SaleID.String(),
		Number:         i.Number,
		Amount:         i.Amount,
		DueDate:        i.DueDate.Format(dateLayout),
		Status:         string(i.Status),
		ReceivedAt:     datePtr(i.ReceivedAt),
		ReceivedAmount: i.ReceivedAmount,
		BankAccountID:  idPtr(i.BankAccountID),
		MovementID:     idPtr(i.MovementID),
		Notes:          i.Notes,
	}
}

func toPayableResponse(p *model.AccountPayable) dto.PayableResponse {
	return dto.PayableResponse{
		ID:          p.ID.String(),
		Description: p.Description,
		Category:    p.Category,
		Amount:      p.Amount,
		DueDate:     p.DueDate.Format(dateLayout),
		Status:      string(p.Status),
		AccountID:   idPtr(p.AccountID),
		PaidAt:      tsPtr(p.PaidAt),
		MovementID:  idPtr(p.MovementID),
	}
}

func toRecurringResponse(e *model.RecurringExpense) dto.RecurringExpenseResponse {
	return dto.RecurringExpenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount,
		Frequency:   string(e.Frequency),
		StartDate:   e.StartDate.Format(dateLayout),
		EndDate:     datePtr(e.EndDate),
		Category:    e.Category,
		AccountID:   idPtr(e.AccountID),
		Active:      e.Active,
	}
}

func toFlows(flows []cashflow.Flow) []dto.FlowResponse {
	out := make([]dto.FlowResponse, len(flows))
	for i, f := range flows {
		out[i] = dto.FlowResponse{
			Date:           f.Date.Format(dateLayout),
			Amount:         f.Amount,
			OriginalAmount: f.OriginalAmount,
			Confidence:     string(f.Confidence),
			Source:         string(f.Source),
			RefID:          f.RefID.String(),
			Description:    f.Description,
		}
	}
	return out
}

func toProjectionResponse(p *cashflow.Projection) dto.ProjectionResponse {
	days := make([]dto.ProjectionDayResponse, len(p.Days))
	for i, d := range p.Days {
		days[i] = dto.ProjectionDayResponse{
			Date:            d.Date.Format(dateLayout),
			OpeningBalance:  d.OpeningBalance,
			Inflow:          d.Inflow,
			Outflow:         d.Outflow,
			ClosingBalance:  d.ClosingBalance,
			MinimumRequired: d.MinimumRequired,
			BelowMinimum:    d.BelowMinimum,
		}
	}
	s := p.Summary
	return dto.ProjectionResponse{
		StartDate:        p.StartDate.Format(dateLayout),
		EndDate:          p.EndDate.Format(dateLayout),
		Scenario:         string(p.Scenario),
		ConfidenceFactor: p.ConfidenceFactor,
		Inflows:          toFlows(p.Inflows),
		Outflows:         toFlows(p.Outflows),
		Days:             days,
		Summary: dto.ProjectionSummaryResponse{
			OpeningBalance:    s.OpeningBalance,
			ClosingBalance:    s.ClosingBalance,
			TotalInflow:       s.TotalInflow,
			TotalOutflow:      s.TotalOutflow,
			NetChange:         s.NetChange,
			LowestBalance:     s.LowestBalance,
			LowestBalanceDate: s.LowestBalanceDate.Format(dateLayout),
			DaysBelowMinimum:  s.DaysBelowMinimum,
			FirstBreachDate:   datePtr(s.FirstBreachDate),
		},
	}
}
