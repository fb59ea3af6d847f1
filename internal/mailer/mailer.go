package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer delivers share-invite emails. Sends are best effort: a failed
// send is logged by the caller and never rolls back the share that
// triggered it.
type Mailer interface {
	SendShareInvite(to, recipeName, senderName, acceptURL string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Password string
}

func NewSMTPMailer(host, port, from, password string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, From: from, Password: password}
}

func (m *SMTPMailer) SendShareInvite(to, recipeName, senderName, acceptURL string) error {
	subject := fmt.Sprintf("%s shared a recipe with you", senderName)
	body := fmt.Sprintf(
		"<p>%s shared the recipe <strong>%s</strong> with you.</p>"+
			"<p><a href=%q>View and accept the recipe</a></p>"+
			"<p>The link does not expire. You will need an account registered "+
			"with this email address to accept.</p>",
		senderName, recipeName, acceptURL,
	)

	msg := "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	msg += fmt.Sprintf("From: %s\r\n", m.From)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "\r\n" + body

	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, smtp.PlainAuth("", m.From, m.Password, m.Host), m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send share invite: %w", err)
	}
	return nil
}

// NoopMailer discards all mail. Used in tests and when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) SendShareInvite(string, string, string, string) error { return nil }
