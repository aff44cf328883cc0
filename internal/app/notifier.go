/**
 * @description
 * Email notification consumer. It listens for `account.provisioned` events on
 * the account_events exchange and sends the corresponding transactional email
 * through the SMTP relay. Delivery is fire-and-forget: a send failure is
 * logged and the message is acknowledged anyway, never retried.
 */
package app

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

// Mailer is the email transport the consumer needs.
type Mailer interface {
	Send(recipients []string, subject, htmlBody, replyTo string) error
}

// NotificationConsumer turns provisioning events into emails.
type NotificationConsumer struct {
	mailer Mailer
}

// NewNotificationConsumer creates a new NotificationConsumer.
func NewNotificationConsumer(mailer Mailer) *NotificationConsumer {
	return &NotificationConsumer{mailer: mailer}
}

// HandleAccountProvisionedEvent processes one account.provisioned message.
// It always returns true: malformed payloads and send failures are both
// acknowledged so the queue never hot-loops on an email.
func (c *NotificationConsumer) HandleAccountProvisionedEvent(body []byte) bool {
	var event domain.AccountProvisionedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=notifier msg=\"unparseable account.provisioned event\" err=%v", err)
		return true
	}
	if event.Email == "" {
		log.Printf("level=warn component=notifier msg=\"account.provisioned event missing email\" user_id=%s", event.UserID)
		return true
	}

	subject, htmlBody := buildProvisionedEmail(event)
	if err := c.mailer.Send([]string{event.Email}, subject, htmlBody, ""); err != nil {
		log.Printf("level=warn component=notifier msg=\"failed to send provisioning email\" user_id=%s err=%v", event.UserID, err)
		return true
	}

	log.Printf("level=info component=notifier msg=\"provisioning email sent\" user_id=%s source=%s", event.UserID, event.Source)
	return true
}

func buildProvisionedEmail(event domain.AccountProvisionedEvent) (subject, htmlBody string) {
	if event.Source == domain.ProvisionSourceManual {
		subject = "Account Number Updated 🎊"
		htmlBody = fmt.Sprintf(`
<span style="color: #2ecc71;">Dear %s,</span>

<span style="color: #27ae60;">We're excited to inform you that your dedicated account number has been successfully generated! 🎉</span>

<span style="color: #16a085;">This new account number is designed to make funding your Kinta wallet even faster and more convenient. If you had a previous account number, don't worry - it's still active and you can continue using it to fund your account.</span>

<span style="color: #2ecc71;">Your new dedicated account details will be visible in your dashboard. This account is specifically assigned to you, making transactions more seamless and efficient.</span>

<span style="color: #27ae60;">Thank you for choosing Kinta! If you have any questions, please don't hesitate to reach out to our support team.</span>

<span style="color: #16a085;">Best regards,<br>
The Kinta Team</span>
`, event.FullName)
		return subject, htmlBody
	}

	subject = "Your Dedicated Account Number is Ready! 🎊"
	htmlBody = fmt.Sprintf(`
<span style="color: #2ecc71;">Dear %s,</span>

<span style="color: #27ae60;">We're excited to inform you that your dedicated account number has been successfully generated! 🎉</span>

<span style="color: #16a085;">This new account number is designed to make funding your Kinta wallet even faster and more convenient.</span>

<span style="color: #2ecc71;">Your new dedicated account details are now visible in your dashboard. This account is specifically assigned to you, making transactions more seamless and efficient.</span>

<span style="color: #27ae60;">Thank you for choosing Kinta! If you have any questions, please don't hesitate to reach out to our support team.</span>

<span style="color: #16a085;">Best regards,<br>
The Kinta Team</span>
`, event.FullName)
	return subject, htmlBody
}
