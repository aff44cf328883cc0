/**
 * @description
 * This file defines the dedicated-account domain model. A dedicated account is a
 * partner-bank-issued virtual account number permanently assigned to one user
 * for wallet funding. It is created exactly once by the provisioner on the first
 * partner that reports success and is immutable afterwards.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DedicatedAccount maps to the `dedicated_accounts` table.
type DedicatedAccount struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	AccountNumber       string    `json:"account_number"`
	AccountName         string    `json:"account_name"`
	BankName            string    `json:"bank_name"`
	BankCode            string    `json:"bank_code"`
	AccountRef          string    `json:"account_ref"` // partner-assigned reference
	OrderRef            string    `json:"order_ref"`   // provisioning idempotency reference (the user id)
	HasDedicatedAccount bool      `json:"has_dedicated_account"`
	CreatedAt           time.Time `json:"created_at"`
}

// ProvisionResult is the outcome of one provisioning attempt for a user.
// Created is true when exactly one dedicated account was persisted; otherwise
// ErrorMessage carries the last observed partner failure.
type ProvisionResult struct {
	Created      bool   `json:"created"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// BatchProvisionResult summarizes one run of the batch provisioning job.
type BatchProvisionResult struct {
	TotalUsersWithoutAccounts int `json:"totalUsersWithoutAccounts"`
	ProcessedInThisRun        int `json:"processedInThisRun"`
	SuccessCount              int `json:"successCount"`
	RemainingUsers            int `json:"remainingUsers"`
}
