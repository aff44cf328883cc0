/**
 * @description
 * Batch backfill of dedicated accounts. Each run recomputes the set of active,
 * email-verified users without an account, processes a capped slice of them
 * sequentially, and leaves the remainder for the next scheduled invocation.
 * There is no persisted cursor or work queue.
 */
package app

import (
	"context"
	"log"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

const defaultMaxUsersPerRun = 50

// ProvisionMissingAccounts runs one batch provisioning pass. A failure for one
// user never aborts processing of the rest.
func (s *Service) ProvisionMissingAccounts(ctx context.Context) (*domain.BatchProvisionResult, error) {
	users, err := s.repo.ListUsersWithoutDedicatedAccounts(ctx)
	if err != nil {
		return nil, err
	}

	total := len(users)
	if total == 0 {
		log.Printf("level=info component=batch msg=\"all active users already have dedicated accounts\"")
		return &domain.BatchProvisionResult{}, nil
	}

	limit := s.cfg.MaxUsersPerRun
	if limit <= 0 {
		limit = defaultMaxUsersPerRun
	}
	if limit > total {
		limit = total
	}
	batch := users[:limit]

	log.Printf("level=info component=batch msg=\"starting provisioning run\" users_without_accounts=%d processing=%d", total, len(batch))

	successCount := 0
	for i := range batch {
		user := &batch[i]
		result := s.ProvisionDedicatedAccount(ctx, user, domain.ProvisionSourceBatch)
		if result.Created {
			successCount++
			continue
		}
		log.Printf("level=warn component=batch msg=\"provisioning failed for user\" user_id=%s err=%q", user.ID, result.ErrorMessage)
	}

	result := &domain.BatchProvisionResult{
		TotalUsersWithoutAccounts: total,
		ProcessedInThisRun:        len(batch),
		SuccessCount:              successCount,
		RemainingUsers:            total - len(batch),
	}
	log.Printf("level=info component=batch msg=\"provisioning run finished\" processed=%d succeeded=%d remaining=%d", result.ProcessedInThisRun, result.SuccessCount, result.RemainingUsers)
	return result, nil
}
