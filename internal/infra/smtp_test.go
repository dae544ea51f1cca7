package infra

import (
	"testing"

	"salonledger/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestDiscrepancyBody(t *testing.T) {
	body := discrepancyBody(DiscrepancyAlert{
		RegisterID: "7f3c2a10-0000-4000-8000-000000000001",
		Expected:   "500.00",
		Actual:     "450.00",
		Difference: "-50.00",
		Severity:   "CRITICAL",
	})
	assert.Contains(t, body, "Expected:   500.00\n")
	assert.Contains(t, body, "Counted:    450.00\n")
	assert.Contains(t, body, "Difference: -50.00 (CRITICAL)\n")
	assert.Equal(t, "7f3c2a10", shortID("7f3c2a10-0000-4000-8000-000000000001"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(&config.Config{SMTPPort: 587})
	assert.False(t, m.Enabled())
	assert.Error(t, m.SendDiscrepancyAlert("owner@salon.test", DiscrepancyAlert{}))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}
