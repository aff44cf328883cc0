/**
 * @description
 * This file defines the transaction domain model and the reconciliation result
 * types for the Kinta backend. A transaction is created in a pending state by an
 * out-of-scope initiation flow and settled exactly once by the webhook
 * reconciler.
 *
 * @notes
 * - `success` and `refunded` are absorbing statuses: once a transaction reaches
 *   either, no further transition is permitted.
 * - `Meta` is an opaque provider payload stored as jsonb; no schema validation
 *   is applied to it.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses.
const (
	TransactionStatusPending  = "pending"
	TransactionStatusSuccess  = "success"
	TransactionStatusFailed   = "failed"
	TransactionStatusRefunded = "refunded"
)

// Transaction types.
const (
	TransactionTypeFunding      = "funding"
	TransactionTypeAirtime      = "airtime"
	TransactionTypeBill         = "bill"
	TransactionTypeData         = "data"
	TransactionTypeExam         = "exam"
	TransactionTypeRechargeCard = "recharge-card"
)

// Transaction maps to the `transactions` table.
type Transaction struct {
	ID            uuid.UUID              `json:"id"`
	Amount        decimal.Decimal        `json:"amount"`
	Note          *string                `json:"note,omitempty"`
	Status        string                 `json:"status"`
	PaymentMethod string                 `json:"payment_method"` // 'virtualAccount', 'dedicatedAccount' or 'ownAccount'
	TxRef         string                 `json:"tx_ref"`
	Type          string                 `json:"type"`
	UserID        uuid.UUID              `json:"user_id"`
	AccountID     *uuid.UUID             `json:"account_id,omitempty"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// IsTerminal reports whether the transaction has reached an absorbing status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusRefunded
}

// ReconcileResult describes which branch the reconciler took for a webhook.
type ReconcileResult struct {
	Updated          bool   `json:"updated"`
	AlreadyCompleted bool   `json:"already_completed"`
	Message          string `json:"message"`
}

// BalanceCorrectionResult is returned by the operator balance-correction flow.
type BalanceCorrectionResult struct {
	Corrected          bool            `json:"corrected"`
	UserID             uuid.UUID       `json:"user_id"`
	OldBalance         decimal.Decimal `json:"old_balance"`
	NewBalance         decimal.Decimal `json:"new_balance"`
	TransactionRef     string          `json:"transaction_ref"`
	CanMakeTransaction bool            `json:"can_make_transaction"`
}

// TransactionHealth reports the success/failure rates of recent transactions of
// one type.
type TransactionHealth struct {
	SuccessRate float64 `json:"successRate"`
	FailureRate float64 `json:"failureRate"`
}
