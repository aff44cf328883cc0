/**
 * @description
 * PostgreSQL implementation of the Repository interface using pgx. Balances and
 * amounts live in `numeric` columns; they are moved across the wire as text and
 * parsed into decimal.Decimal to keep currency arithmetic exact.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5, pgconn, pgxpool: The PostgreSQL driver.
 * - github.com/shopspring/decimal: Exact currency values.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

// PostgresRepository is the PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = `
	id, full_name, email, phone_number, country, balance::text, role,
	is_email_verified, is_phone_verified, can_make_transaction, status,
	ref_code, created_at, updated_at
`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var balance string
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.PhoneNumber, &u.Country, &balance,
		&u.Role, &u.IsEmailVerified, &u.IsPhoneVerified, &u.CanMakeTransaction,
		&u.Status, &u.RefCode, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse user balance: %w", err)
	}
	return &u, nil
}

// FindUserByID retrieves a single user by their internal id.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// OverwriteUserBalance sets the balance unconditionally and re-enables the
// can_make_transaction flag. Last writer wins.
func (r *PostgresRepository) OverwriteUserBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (*domain.User, error) {
	query := `
		UPDATE users
		SET balance = $2::numeric, can_make_transaction = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, userID, balance.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsersWithoutDedicatedAccounts recomputes the set-difference of active,
// email-verified users against successfully provisioned dedicated accounts.
func (r *PostgresRepository) ListUsersWithoutDedicatedAccounts(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.is_email_verified = TRUE
		  AND u.status = 'active'
		  AND NOT EXISTS (
			SELECT 1 FROM dedicated_accounts a
			WHERE a.user_id = u.id AND a.has_dedicated_account = TRUE
		  )
		ORDER BY u.created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// CreateDedicatedAccount inserts a new dedicated account record.
func (r *PostgresRepository) CreateDedicatedAccount(ctx context.Context, account *domain.DedicatedAccount) (uuid.UUID, error) {
	query := `
		INSERT INTO dedicated_accounts (
			user_id, account_number, account_name, bank_name, bank_code,
			account_ref, order_ref, has_dedicated_account
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var accountID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		account.UserID,
		account.AccountNumber,
		account.AccountName,
		account.BankName,
		account.BankCode,
		account.AccountRef,
		account.OrderRef,
		account.HasDedicatedAccount,
	).Scan(&accountID)
	if err != nil {
		if isUniqueViolation(err) {
			log.Printf("level=warn component=store msg=\"duplicate dedicated account\" user_id=%s", account.UserID)
			return uuid.Nil, ErrDuplicateAccount
		}
		return uuid.Nil, err
	}
	return accountID, nil
}

// FindDedicatedAccountByUserID retrieves a user's dedicated account, if any.
func (r *PostgresRepository) FindDedicatedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.DedicatedAccount, error) {
	query := `
		SELECT id, user_id, account_number, account_name, bank_name, bank_code,
		       account_ref, order_ref, has_dedicated_account, created_at
		FROM dedicated_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var a domain.DedicatedAccount
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&a.ID, &a.UserID, &a.AccountNumber, &a.AccountName, &a.BankName,
		&a.BankCode, &a.AccountRef, &a.OrderRef, &a.HasDedicatedAccount,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

const transactionColumns = `
	id, amount::text, note, status, payment_method, tx_ref, type, user_id,
	account_id, meta, created_at, updated_at
`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount string
	var meta []byte
	err := row.Scan(
		&t.ID, &amount, &t.Note, &t.Status, &t.PaymentMethod, &t.TxRef,
		&t.Type, &t.UserID, &t.AccountID, &meta, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	if len(meta) > 0 {
		// The meta payload is opaque; unmarshal failures are tolerated so a
		// malformed provider blob cannot block reconciliation.
		if err := json.Unmarshal(meta, &t.Meta); err != nil {
			log.Printf("level=warn component=store msg=\"unparseable transaction meta\" transaction_id=%s err=%v", t.ID, err)
		}
	}
	return &t, nil
}

// FindTransactionByTxRef retrieves a transaction by its unique external reference.
func (r *PostgresRepository) FindTransactionByTxRef(ctx context.Context, txRef string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_ref = $1`
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, txRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// FindTransactionByMetaReference retrieves a transaction by the provider
// reference stored inside the meta payload.
func (r *PostgresRepository) FindTransactionByMetaReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE meta->>'transactionRef' = $1
		ORDER BY created_at DESC
		LIMIT 1`
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// RefundTransaction performs the conditional refund transition and the balance
// credit inside a single database transaction. The status guard makes repeated
// or concurrent webhook deliveries settle the refund exactly once.
func (r *PostgresRepository) RefundTransaction(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx, `
		UPDATE transactions
		SET status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('success', 'refunded')`,
		transactionID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Lost the race or already settled; nothing to credit.
		return false, nil
	}

	tag, err = dbTx.Exec(ctx, `
		UPDATE users
		SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE id = $1`,
		userID, amount.String(),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, ErrUserNotFound
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// MarkTransactionSuccess performs the conditional success transition. No
// balance mutation: funding settlement is handled at a different stage.
func (r *PostgresRepository) MarkTransactionSuccess(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status = 'success', updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('success', 'refunded')`,
		transactionID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetTransactionStatusCounts aggregates settled outcomes for one transaction
// type since the given instant. Refunded counts as failed.
func (r *PostgresRepository) GetTransactionStatusCounts(ctx context.Context, transactionType string, since time.Time) (*TransactionStatusCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status IN ('failed', 'refunded'))
		FROM transactions
		WHERE type = $1 AND created_at >= $2`

	var counts TransactionStatusCounts
	err := r.db.QueryRow(ctx, query, transactionType, since).Scan(
		&counts.Total, &counts.Success, &counts.Failed,
	)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}
