// Package mailer sends transactional email over SMTP. Delivery is best
// effort; callers log failures and move on, the request that triggered the
// mail never fails because of it.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP settings. An empty Host disables sending, which is the
// default for local development.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends mail through one SMTP account.
type Mailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// Enabled reports whether a host is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers one HTML message. A disabled mailer silently succeeds.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return nil
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	msg := buildMessage(m.cfg.From, to, subject, body)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Welcome greets a newly registered user.
func (m *Mailer) Welcome(to, fullName string) error {
	body := fmt.Sprintf(
		"<h2>Bienvenido a SoftwarePar, %s</h2><p>Tu cuenta fue creada correctamente. Ya puedes acceder a tu panel.</p>",
		fullName,
	)
	return m.Send(to, "Bienvenido a SoftwarePar", body)
}

// ContactNotification forwards a public contact form submission to staff.
func (m *Mailer) ContactNotification(staff, name, email, message string) error {
	body := fmt.Sprintf(
		"<h2>Nueva consulta</h2><p><strong>Nombre:</strong> %s</p><p><strong>Email:</strong> %s</p><p>%s</p>",
		name, email, message,
	)
	return m.Send(staff, "Nueva consulta desde softwarepar.lat", body)
}

// CommissionSettled tells a partner their referral converted.
func (m *Mailer) CommissionSettled(to string, amountCents int64) error {
	body := fmt.Sprintf(
		"<h2>Comisión acreditada</h2><p>Se acreditó una comisión de $%d.%02d a tu cuenta de partner.</p>",
		amountCents/100, amountCents%100,
	)
	return m.Send(to, "Comisión acreditada", body)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
