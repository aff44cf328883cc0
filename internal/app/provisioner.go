/**
 * @description
 * Dedicated-account provisioning. Given a user, the provisioner walks a fixed,
 * ordered list of partner banks and asks the Billstack aggregator to issue a
 * dedicated virtual account against each in turn until one succeeds or the
 * list is exhausted. This is retry-by-substitution: a failing partner is never
 * retried, only replaced by the next one in the list.
 *
 * Key behaviors:
 * - The user's internal id is the idempotency reference sent to Billstack.
 * - The full name is split on the first whitespace; a user with a single name
 *   gets it duplicated into the last-name field. Billstack requires both
 *   fields, so this quirk is intentional and preserved.
 * - On first logical success exactly one dedicated account row is persisted
 *   and iteration stops. On total exhaustion the last observed partner message
 *   is reported. No partial rows are ever written.
 */
package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

// splitFullName splits a full name on the first whitespace. When there is no
// last name the first name is duplicated into it.
func splitFullName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], parts[1]
}

// ProvisionDedicatedAccount attempts to obtain a dedicated virtual account for
// the user from the first partner bank that accepts the request. The result
// carries Created=true on success, otherwise the last observed error message.
// The caller is expected to check whether the user already has an account; the
// provisioner itself does not.
func (s *Service) ProvisionDedicatedAccount(ctx context.Context, user *domain.User, source string) domain.ProvisionResult {
	firstName, lastName := splitFullName(user.FullName)

	var lastError string
	for _, bank := range s.cfg.ProvisionBankList() {
		req := domain.GenerateVirtualAccountRequest{
			Bank:      bank,
			Email:     user.Email,
			FirstName: firstName,
			LastName:  lastName,
			Phone:     user.PhoneNumber,
			Reference: user.ID.String(),
		}

		resp, err := s.billstack.GenerateVirtualAccount(ctx, req)
		if err != nil {
			lastError = err.Error()
			log.Printf("level=warn component=provisioner msg=\"partner call failed\" user_id=%s bank=%s err=%v", user.ID, bank, err)
			continue
		}
		if !resp.Status {
			lastError = resp.Message
			log.Printf("level=warn component=provisioner msg=\"partner reported failure\" user_id=%s bank=%s message=%q", user.ID, bank, resp.Message)
			continue
		}
		if len(resp.Data.Account) == 0 {
			lastError = "provider returned no account records"
			log.Printf("level=warn component=provisioner msg=\"empty account list in success response\" user_id=%s bank=%s", user.ID, bank)
			continue
		}

		issued := resp.Data.Account[0]
		account := &domain.DedicatedAccount{
			UserID:              user.ID,
			AccountNumber:       issued.AccountNumber,
			AccountName:         issued.AccountName,
			BankName:            issued.BankName,
			BankCode:            issued.BankID,
			AccountRef:          resp.Data.Reference,
			OrderRef:            user.ID.String(),
			HasDedicatedAccount: true,
		}
		if _, err := s.repo.CreateDedicatedAccount(ctx, account); err != nil {
			// Persistence failure aborts the run entirely; remaining partners
			// are not tried and no partial record exists.
			log.Printf("level=error component=provisioner msg=\"failed to persist dedicated account\" user_id=%s bank=%s err=%v", user.ID, bank, err)
			return domain.ProvisionResult{Created: false, ErrorMessage: err.Error()}
		}

		log.Printf("level=info component=provisioner msg=\"dedicated account provisioned\" user_id=%s bank=%s account_number=%s", user.ID, bank, issued.AccountNumber)
		s.publishAccountProvisioned(ctx, user, account, source)
		return domain.ProvisionResult{Created: true}
	}

	return domain.ProvisionResult{Created: false, ErrorMessage: lastError}
}

// publishAccountProvisioned emits the notification event. Best-effort: a
// publish failure never affects the provisioning outcome.
func (s *Service) publishAccountProvisioned(ctx context.Context, user *domain.User, account *domain.DedicatedAccount, source string) {
	if s.events == nil {
		return
	}
	event := domain.AccountProvisionedEvent{
		UserID:        user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		AccountNumber: account.AccountNumber,
		BankName:      account.BankName,
		Source:        source,
	}
	if err := s.events.Publish(ctx, "account_events", "account.provisioned", event); err != nil {
		log.Printf("level=warn component=provisioner msg=\"failed to publish account.provisioned event\" user_id=%s err=%v", user.ID, err)
	}
}

// GenerateDedicatedAccountForUser is the on-demand provisioning flow behind
// the signed HTTP endpoint. It rate-limits per user, refuses to re-provision a
// user who already holds an account from the primary partner, and otherwise
// delegates to the provisioner.
func (s *Service) GenerateDedicatedAccountForUser(ctx context.Context, userID uuid.UUID) (*domain.ProvisionResult, error) {
	if s.limiter != nil {
		count, _, err := s.limiter.ConsumeRateLimit(ctx, "provision", userID.String(), s.cfg.ProvisionRateLimit, s.provisionRateLimitWindow())
		if err != nil {
			// A broken limiter must not block provisioning.
			log.Printf("level=warn component=provisioner msg=\"rate limiter unavailable\" user_id=%s err=%v", userID, err)
		} else if s.cfg.ProvisionRateLimit > 0 && count > s.cfg.ProvisionRateLimit {
			return nil, ErrProvisionRateLimited
		}
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindDedicatedAccountByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.BankCode == domain.BankPalmpay {
		return nil, ErrAccountAlreadyExists
	}

	result := s.ProvisionDedicatedAccount(ctx, user, domain.ProvisionSourceManual)
	return &result, nil
}
