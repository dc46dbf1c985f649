package mailservice

import (
	"time"

	"github.com/go-mail/mail/v2"
)

// NewMailer creates an SMTP mailer that renders its messages from tp.
func NewMailer(host string, port int, username, password, sender string, tp TemplateRenderer) *Mail {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &Mail{
		dialer:    dialer,
		sender:    sender,
		templates: tp,
	}
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	e, err := m.templates.Render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.PlainBody)
	msg.AddAlternative("text/html", e.HTMLBody)

	// go-mail dialers are not safe for concurrent use
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dialer.DialAndSend(msg)
}
