package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"salonledger/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spySender struct {
	to   []string
	sent []infra.DiscrepancyAlert
	err  error
}

func (s *spySender) SendDiscrepancyAlert(to string, a infra.DiscrepancyAlert) error {
	s.to = append(s.to, to)
	s.sent = append(s.sent, a)
	return s.err
}

func alertPayload(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(DiscrepancyAlertPayload{
		RegisterID: "reg-1",
		Expected:   "500.00",
		Actual:     "450.00",
		Difference: "-50.00",
		Severity:   "CRITICAL",
	})
	require.NoError(t, err)
	return raw
}

func TestDiscrepancyAlertWorker_Sends(t *testing.T) {
	sender := &spySender{}
	w := NewDiscrepancyAlertWorker(sender, "owner@salon.test")

	require.NoError(t, w.Process(context.Background(), alertPayload(t)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@salon.test", sender.to[0])
	assert.Equal(t, "reg-1", sender.sent[0].RegisterID)
	assert.Equal(t, "-50.00", sender.sent[0].Difference)
}

func TestDiscrepancyAlertWorker_NoRecipientIsNoop(t *testing.T) {
	sender := &spySender{}
	w := NewDiscrepancyAlertWorker(sender, "")
	require.NoError(t, w.Process(context.Background(), alertPayload(t)))
	assert.Empty(t, sender.sent)
}

func TestDiscrepancyAlertWorker_Errors(t *testing.T) {
	sender := &spySender{err: errors.New("535 auth failed")}
	w := NewDiscrepancyAlertWorker(sender, "owner@salon.test")

	err := w.Process(context.Background(), alertPayload(t))
	require.Error(t, err)
	var perm permanentError
	assert.False(t, errors.As(err, &perm), "send failures are retried")

	err = w.Process(context.Background(), json.RawMessage(`"not an object"`))
	require.Error(t, err)
	assert.True(t, errors.As(err, &perm), "bad payloads are permanent")
}
