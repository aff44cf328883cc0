/**
 * @description
 * This file defines the user domain model for the Kinta backend. A user owns a
 * wallet balance that is mutated by the webhook reconciler (refund credit-back)
 * and by the operator balance-correction endpoint.
 *
 * @notes
 * - Balances and amounts are `decimal.Decimal` values backed by `numeric`
 *   columns, so currency arithmetic is exact.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a Kinta wallet user. It maps to the `users` table.
type User struct {
	ID                 uuid.UUID       `json:"id"`
	FullName           string          `json:"full_name"`
	Email              string          `json:"email"`
	PhoneNumber        string          `json:"phone_number"`
	Country            string          `json:"country"`
	Balance            decimal.Decimal `json:"balance"`
	Role               string          `json:"role"` // 'user' or 'admin'
	IsEmailVerified    bool            `json:"is_email_verified"`
	IsPhoneVerified    bool            `json:"is_phone_verified"`
	CanMakeTransaction bool            `json:"can_make_transaction"`
	Status             string          `json:"status"` // 'active' or 'inactive'
	RefCode            *string         `json:"ref_code,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
