/**
 * @description
 * SMTP mailer for transactional notifications. Delivery is fire-and-forget:
 * callers log failures but never retry, and no email failure is allowed to
 * affect provisioning or reconciliation outcomes.
 */
package mailer

import (
	"gopkg.in/gomail.v2"
)

// Mailer sends HTML email over an SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer against the given SMTP relay.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one HTML email to the recipients. replyTo may be empty.
func (m *Mailer) Send(recipients []string, subject, htmlBody, replyTo string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	if replyTo != "" {
		msg.SetHeader("Reply-To", replyTo)
	}
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
