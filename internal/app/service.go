/**
 * @description
 * This file defines the application service for the Kinta backend and the
 * collaborator interfaces it depends on. The service wires the provisioning,
 * reconciliation, batch and operator flows to the repository and the external
 * clients.
 *
 * @dependencies
 * - internal/store: Repository interface and sentinel errors.
 * - internal/config: Runtime configuration.
 * - github.com/shopspring/decimal: Exact currency values.
 */
package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/config"
	"github.com/s00laimang01/kinta-backend/internal/domain"
	"github.com/s00laimang01/kinta-backend/internal/store"
)

// Errors surfaced by the application service.
var (
	ErrAccountAlreadyExists = errors.New("dedicated account already generated for user")
	ErrProvisionRateLimited = errors.New("provisioning rate limit exceeded")
	ErrInvalidWebhookType   = errors.New("invalid webhook type")
)

// BillstackClient is the aggregator surface the provisioner needs.
type BillstackClient interface {
	GenerateVirtualAccount(ctx context.Context, req domain.GenerateVirtualAccountRequest) (*domain.GenerateVirtualAccountResponse, error)
}

// EventPublisher publishes internal events to a topic exchange.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// ProvisionRateLimiter counts provisioning attempts per subject within a
// rolling window. The returned count includes the consumed attempt.
type ProvisionRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service implements the core application logic.
type Service struct {
	repo      store.Repository
	billstack BillstackClient
	events    EventPublisher       // may be nil; event publishing is best-effort
	limiter   ProvisionRateLimiter // may be nil; unlimited without it
	cfg       *config.Config
}

// NewService creates a new Service with its dependencies.
func NewService(repo store.Repository, billstack BillstackClient, events EventPublisher, limiter ProvisionRateLimiter, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		billstack: billstack,
		events:    events,
		limiter:   limiter,
		cfg:       cfg,
	}
}

// CorrectUserBalance is the operator escape hatch: given a transaction
// reference and a target balance it overwrites the owning user's balance
// unconditionally and re-enables the can_make_transaction flag. No
// optimistic-concurrency check is performed; last writer wins.
func (s *Service) CorrectUserBalance(ctx context.Context, txRef string, newBalance decimal.Decimal) (*domain.BalanceCorrectionResult, error) {
	tx, err := s.repo.FindTransactionByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, tx.UserID)
	if err != nil {
		return nil, err
	}

	if user.Balance.Equal(newBalance) {
		return &domain.BalanceCorrectionResult{
			Corrected:          false,
			UserID:             user.ID,
			OldBalance:         user.Balance,
			NewBalance:         user.Balance,
			TransactionRef:     txRef,
			CanMakeTransaction: user.CanMakeTransaction,
		}, nil
	}

	updated, err := s.repo.OverwriteUserBalance(ctx, user.ID, newBalance)
	if err != nil {
		return nil, err
	}

	return &domain.BalanceCorrectionResult{
		Corrected:          true,
		UserID:             updated.ID,
		OldBalance:         user.Balance,
		NewBalance:         updated.Balance,
		TransactionRef:     txRef,
		CanMakeTransaction: updated.CanMakeTransaction,
	}, nil
}

// dataHealthWindow is the trailing window used for the data-transaction health
// report.
const dataHealthWindow = 2 * time.Hour

// DataTransactionHealth reports the success/failure rates of data transactions
// over the trailing window.
func (s *Service) DataTransactionHealth(ctx context.Context) (*domain.TransactionHealth, error) {
	counts, err := s.repo.GetTransactionStatusCounts(ctx, domain.TransactionTypeData, time.Now().Add(-dataHealthWindow))
	if err != nil {
		return nil, err
	}

	health := &domain.TransactionHealth{}
	if counts.Total > 0 {
		health.SuccessRate = float64(counts.Success) / float64(counts.Total)
		health.FailureRate = float64(counts.Failed) / float64(counts.Total)
	}
	return health, nil
}
