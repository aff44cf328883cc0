/**
 * @description
 * Webhook-driven transaction reconciliation. Two payment providers deliver
 * terminal events with different payload shapes but identical semantics; both
 * reduce to (matchReference, terminalCode) -> action. The reconciler resolves
 * the local transaction, guards against double-processing, and applies the
 * refund or success transition exactly once.
 *
 * Key behaviors:
 * - Candidate references are tried in priority order; VTPass additionally
 *   falls back to the reference stored inside the transaction meta payload.
 * - `success` and `refunded` are absorbing: any further webhook for the same
 *   reference gets a distinct "already completed" response with no mutation.
 * - The refund transition and the balance credit happen in one atomic
 *   conditional update at the repository, so concurrent deliveries for the
 *   same reference cannot double-refund; the loser observes the terminal
 *   guard.
 */
package app

import (
	"context"
	"log"

	"github.com/s00laimang01/kinta-backend/internal/domain"
	"github.com/s00laimang01/kinta-backend/internal/store"
)

type reconcileAction int

const (
	actionNone reconcileAction = iota
	actionRefund
	actionSuccess
)

const (
	msgTransactionUpdated = "Transaction updated successfully"
	msgAlreadyCompleted   = "Transaction with this reference has already been completed."
)

// HandleSMEPlugWebhook reconciles an SME Plug event. Only an explicit "failed"
// status triggers a refund; every other status is acknowledged unchanged.
func (s *Service) HandleSMEPlugWebhook(ctx context.Context, payload domain.SMEPlugWebhook) (*domain.ReconcileResult, error) {
	action := actionNone
	if payload.Transaction.Status == "failed" {
		action = actionRefund
	}

	refs := []string{payload.Transaction.CustomerReference, payload.Transaction.Reference}
	return s.reconcile(ctx, refs, "", action)
}

// HandleVTPassWebhook reconciles a VTPass transaction-update event using the
// configurable terminal-code mapping.
func (s *Service) HandleVTPassWebhook(ctx context.Context, payload domain.VTPassWebhook) (*domain.ReconcileResult, error) {
	if payload.Type != "transaction-update" {
		return nil, ErrInvalidWebhookType
	}

	action := actionNone
	switch {
	case containsCode(s.cfg.RefundCodeList(), payload.Data.Code):
		action = actionRefund
	case containsCode(s.cfg.SuccessCodeList(), payload.Data.Code):
		action = actionSuccess
	}

	return s.reconcile(ctx, []string{payload.Data.RequestID}, payload.Data.RequestID, action)
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// findTransaction tries the candidate tx_ref values in priority order, then
// the meta-payload reference when one is given.
func (s *Service) findTransaction(ctx context.Context, refs []string, metaRef string) (*domain.Transaction, error) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		tx, err := s.repo.FindTransactionByTxRef(ctx, ref)
		if err == nil {
			return tx, nil
		}
		if err != store.ErrTransactionNotFound {
			return nil, err
		}
	}
	if metaRef != "" {
		return s.repo.FindTransactionByMetaReference(ctx, metaRef)
	}
	return nil, store.ErrTransactionNotFound
}

func (s *Service) reconcile(ctx context.Context, refs []string, metaRef string, action reconcileAction) (*domain.ReconcileResult, error) {
	tx, err := s.findTransaction(ctx, refs, metaRef)
	if err != nil {
		return nil, err
	}

	if tx.IsTerminal() {
		return &domain.ReconcileResult{
			AlreadyCompleted: true,
			Message:          msgAlreadyCompleted,
		}, nil
	}

	switch action {
	case actionRefund:
		user, err := s.repo.FindUserByID(ctx, tx.UserID)
		if err != nil {
			return nil, err
		}

		refunded, err := s.repo.RefundTransaction(ctx, tx.ID, user.ID, tx.Amount)
		if err != nil {
			return nil, err
		}
		if !refunded {
			// Another delivery settled the transaction between lookup and
			// transition.
			return &domain.ReconcileResult{
				AlreadyCompleted: true,
				Message:          msgAlreadyCompleted,
			}, nil
		}
		log.Printf("level=info component=reconciler msg=\"transaction refunded\" transaction_id=%s tx_ref=%s user_id=%s amount=%s", tx.ID, tx.TxRef, user.ID, tx.Amount)
		return &domain.ReconcileResult{Updated: true, Message: msgTransactionUpdated}, nil

	case actionSuccess:
		updated, err := s.repo.MarkTransactionSuccess(ctx, tx.ID)
		if err != nil {
			return nil, err
		}
		if !updated {
			return &domain.ReconcileResult{
				AlreadyCompleted: true,
				Message:          msgAlreadyCompleted,
			}, nil
		}
		log.Printf("level=info component=reconciler msg=\"transaction marked successful\" transaction_id=%s tx_ref=%s", tx.ID, tx.TxRef)
		return &domain.ReconcileResult{Updated: true, Message: msgTransactionUpdated}, nil

	default:
		// Unrecognized code or status: acknowledge without mutation.
		return &domain.ReconcileResult{Message: msgTransactionUpdated}, nil
	}
}
