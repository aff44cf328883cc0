/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the Kinta backend needs. Keeping an interface between the application
 * logic and PostgreSQL makes the provisioner, reconciler and batch job testable
 * with in-memory stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - github.com/shopspring/decimal: For exact currency values.
 * - internal/domain: For the service's domain models.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

// Sentinel errors surfaced by repository implementations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateAccount    = errors.New("dedicated account already exists for reference")
)

// TransactionStatusCounts aggregates settled outcomes for one transaction type
// over a time window.
type TransactionStatusCounts struct {
	Total   int
	Success int
	Failed  int // includes refunded
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	// OverwriteUserBalance unconditionally sets the balance and re-enables the
	// can_make_transaction flag. Last writer wins; operator use only.
	OverwriteUserBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (*domain.User, error)
	// ListUsersWithoutDedicatedAccounts returns every active, email-verified
	// user that has no successfully provisioned dedicated account. The
	// set-difference is recomputed fresh on every call; there is no cursor.
	ListUsersWithoutDedicatedAccounts(ctx context.Context) ([]domain.User, error)

	// Dedicated account methods
	CreateDedicatedAccount(ctx context.Context, account *domain.DedicatedAccount) (uuid.UUID, error)
	FindDedicatedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.DedicatedAccount, error)

	// Transaction methods
	FindTransactionByTxRef(ctx context.Context, txRef string) (*domain.Transaction, error)
	// FindTransactionByMetaReference looks a transaction up by the provider
	// reference stored inside the opaque meta payload (VTPass fallback key).
	FindTransactionByMetaReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// RefundTransaction atomically transitions the transaction to 'refunded'
	// and credits the owning user's balance by amount, in one database
	// transaction guarded on the status not already being terminal. It returns
	// false when another delivery won the race.
	RefundTransaction(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	// MarkTransactionSuccess transitions the transaction to 'success' guarded
	// on the status not already being terminal. No balance mutation.
	MarkTransactionSuccess(ctx context.Context, transactionID uuid.UUID) (bool, error)
	GetTransactionStatusCounts(ctx context.Context, transactionType string, since time.Time) (*TransactionStatusCounts, error)
}
