package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"salonledger/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for operational notifications.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// DiscrepancyAlert is the content of a closing discrepancy notification.
type DiscrepancyAlert struct {
	RegisterID string
	AccountID  string
	OpenedBy   string
	ClosedBy   string
	ClosedAt   string
	Expected   string
	Actual     string
	Difference string
	Severity   string
}

// SendDiscrepancyAlert emails a plain-text summary of a register that closed
// with a counted amount different from the expected one.
func (m *Mailer) SendDiscrepancyAlert(to string, a DiscrepancyAlert) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP is not configured")
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = fmt.Sprintf("[%s] Register %s closed with a difference of %s", a.Severity, shortID(a.RegisterID), a.Difference)
	e.Text = []byte(discrepancyBody(a))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}

func discrepancyBody(a DiscrepancyAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Register:   %s\n", a.RegisterID)
	fmt.Fprintf(&b, "Account:    %s\n", a.AccountID)
	fmt.Fprintf(&b, "Opened by:  %s\n", a.OpenedBy)
	fmt.Fprintf(&b, "Closed by:  %s\n", a.ClosedBy)
	fmt.Fprintf(&b, "Closed at:  %s\n\n", a.ClosedAt)
	fmt.Fprintf(&b, "Expected:   %s\n", a.Expected)
	fmt.Fprintf(&b, "Counted:    %s\n", a.Actual)
	fmt.Fprintf(&b, "Difference: %s (%s)\n", a.Difference, a.Severity)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
