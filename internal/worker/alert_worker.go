package worker

// alert_worker.go
// Emails closing discrepancy alerts queued by the register service.

import (
	"context"
	"encoding/json"
	"fmt"

	"salonledger/internal/infra"

	"github.com/rs/zerolog/log"
)

// DiscrepancyAlertPayload is the job payload sent to QueueAlerts.
// Monetary values are fixed two-decimal strings.
type DiscrepancyAlertPayload struct {
	RegisterID string `json:"register_id"`
	AccountID  string `json:"account_id"`
	OpenedBy   string `json:"opened_by"`
	ClosedBy   string `json:"closed_by"`
	ClosedAt   string `json:"closed_at"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
	Difference string `json:"difference"`
	Severity   string `json:"severity"`
}

// AlertSender delivers an alert. *infra.Mailer satisfies it.
type AlertSender interface {
	SendDiscrepancyAlert(to string, a infra.DiscrepancyAlert) error
}

type DiscrepancyAlertWorker struct {
	sender AlertSender
	to     string
}

// NewDiscrepancyAlertWorker sends alerts to the given recipient. An empty
// recipient turns every job into a logged no-op.
func NewDiscrepancyAlertWorker(sender AlertSender, to string) *DiscrepancyAlertWorker {
	return &DiscrepancyAlertWorker{sender: sender, to: to}
}

func (w *DiscrepancyAlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p DiscrepancyAlertPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Permanent(fmt.Errorf("alert_worker: invalid payload: %w", err))
	}
	if w.to == "" {
		log.Warn().Str("register_id", p.RegisterID).Msg("alert_worker: no alert recipient configured, skipping")
		return nil
	}

	err := w.sender.SendDiscrepancyAlert(w.to, infra.DiscrepancyAlert{
		RegisterID: p.RegisterID,
		AccountID:  p.AccountID,
		OpenedBy:   p.OpenedBy,
		ClosedBy:   p.ClosedBy,
		ClosedAt:   p.ClosedAt,
		Expected:   p.Expected,
		Actual:     p.Actual,
		Difference: p.Difference,
		Severity:   p.Severity,
	})
	if err != nil {
		return fmt.Errorf("alert_worker: send: %w", err)
	}
	log.Info().Str("register_id", p.RegisterID).Str("to", w.to).Msg("alert_worker: discrepancy alert sent")
	return nil
}
