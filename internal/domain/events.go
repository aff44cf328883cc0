/**
 * @description
 * Internal event payloads published to RabbitMQ. The provisioner emits an
 * `account.provisioned` event after persisting a dedicated account; the
 * notification consumer turns it into a transactional email.
 */
package domain

import "github.com/google/uuid"

// Provisioning sources, used to pick the email wording.
const (
	ProvisionSourceBatch  = "batch"
	ProvisionSourceManual = "manual"
)

// AccountProvisionedEvent is published on the account_events exchange with
// routing key "account.provisioned".
type AccountProvisionedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	Source        string    `json:"source"` // "batch" or "manual"
}
