package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/domain"
	"github.com/s00laimang01/kinta-backend/internal/store"
)

type reconcileRepoStub struct {
	store.Repository

	txByRef     map[string]*domain.Transaction
	txByMetaRef map[string]*domain.Transaction
	user        *domain.User

	refundCalled  int
	refundAmount  decimal.Decimal
	refundTxID    uuid.UUID
	refundOutcome bool
	refundErr     error

	successCalled  int
	successOutcome bool
}

func (s *reconcileRepoStub) FindTransactionByTxRef(ctx context.Context, txRef string) (*domain.Transaction, error) {
	if tx, ok := s.txByRef[txRef]; ok {
		return tx, nil
	}
	return nil, store.ErrTransactionNotFound
}

func (s *reconcileRepoStub) FindTransactionByMetaReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	if tx, ok := s.txByMetaRef[reference]; ok {
		return tx, nil
	}
	return nil, store.ErrTransactionNotFound
}

func (s *reconcileRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if s.user == nil {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *reconcileRepoStub) RefundTransaction(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	s.refundCalled++
	s.refundTxID = transactionID
	s.refundAmount = amount
	return s.refundOutcome, s.refundErr
}

func (s *reconcileRepoStub) MarkTransactionSuccess(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	s.successCalled++
	return s.successOutcome, nil
}

func pendingTransaction(txRef string, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:     uuid.New(),
		Amount: decimal.RequireFromString(amount),
		Status: domain.TransactionStatusPending,
		TxRef:  txRef,
		Type:   domain.TransactionTypeData,
		UserID: uuid.New(),
	}
}

func TestHandleSMEPlugWebhook_FailedStatusRefundsOnce(t *testing.T) {
	tx := pendingTransaction("cust-ref-1", "1500")
	repo := &reconcileRepoStub{
		txByRef:       map[string]*domain.Transaction{"cust-ref-1": tx},
		user:          &domain.User{ID: tx.UserID, Balance: decimal.RequireFromString("200")},
		refundOutcome: true,
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "failed"
	payload.Transaction.CustomerReference = "cust-ref-1"
	payload.Transaction.Reference = "provider-ref-1"

	result, err := service.HandleSMEPlugWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !result.Updated {
		t.Fatalf("expected refund to be applied, got %+v", result)
	}
	if repo.refundCalled != 1 {
		t.Fatalf("expected exactly one refund call, got %d", repo.refundCalled)
	}
	if !repo.refundAmount.Equal(tx.Amount) {
		t.Fatalf("expected refund of %s, got %s", tx.Amount, repo.refundAmount)
	}
	if repo.refundTxID != tx.ID {
		t.Fatalf("refund applied to wrong transaction: %s", repo.refundTxID)
	}
}

func TestHandleSMEPlugWebhook_NonFailedStatusAcknowledgesWithoutMutation(t *testing.T) {
	tx := pendingTransaction("cust-ref-1", "1500")
	repo := &reconcileRepoStub{
		txByRef: map[string]*domain.Transaction{"cust-ref-1": tx},
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "delivered"
	payload.Transaction.CustomerReference = "cust-ref-1"

	result, err := service.HandleSMEPlugWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Updated || result.AlreadyCompleted {
		t.Fatalf("expected plain acknowledgement, got %+v", result)
	}
	if repo.refundCalled != 0 || repo.successCalled != 0 {
		t.Fatal("expected no status transition")
	}
}

func TestHandleSMEPlugWebhook_PrefersCustomerReference(t *testing.T) {
	byCustomerRef := pendingTransaction("cust-ref-1", "1000")
	byProviderRef := pendingTransaction("provider-ref-1", "9999")
	repo := &reconcileRepoStub{
		txByRef: map[string]*domain.Transaction{
			"cust-ref-1":     byCustomerRef,
			"provider-ref-1": byProviderRef,
		},
		user:          &domain.User{ID: byCustomerRef.UserID},
		refundOutcome: true,
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "failed"
	payload.Transaction.CustomerReference = "cust-ref-1"
	payload.Transaction.Reference = "provider-ref-1"

	if _, err := service.HandleSMEPlugWebhook(context.Background(), payload); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.refundTxID != byCustomerRef.ID {
		t.Fatal("expected the customer reference to win the lookup")
	}
}

func TestHandleSMEPlugWebhook_FallsBackToProviderReference(t *testing.T) {
	tx := pendingTransaction("provider-ref-1", "1000")
	repo := &reconcileRepoStub{
		txByRef:       map[string]*domain.Transaction{"provider-ref-1": tx},
		user:          &domain.User{ID: tx.UserID},
		refundOutcome: true,
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "failed"
	payload.Transaction.CustomerReference = "unknown-ref"
	payload.Transaction.Reference = "provider-ref-1"

	result, err := service.HandleSMEPlugWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !result.Updated {
		t.Fatalf("expected refund via provider reference, got %+v", result)
	}
}

func TestReconcile_TerminalTransactionIsNotTouched(t *testing.T) {
	for _, status := range []string{domain.TransactionStatusSuccess, domain.TransactionStatusRefunded} {
		t.Run(status, func(t *testing.T) {
			tx := pendingTransaction("cust-ref-1", "1000")
			tx.Status = status
			repo := &reconcileRepoStub{
				txByRef: map[string]*domain.Transaction{"cust-ref-1": tx},
			}
			service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

			payload := domain.SMEPlugWebhook{}
			payload.Transaction.Status = "failed"
			payload.Transaction.CustomerReference = "cust-ref-1"

			result, err := service.HandleSMEPlugWebhook(context.Background(), payload)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if !result.AlreadyCompleted {
				t.Fatalf("expected already-completed response, got %+v", result)
			}
			if result.Message != "Transaction with this reference has already been completed." {
				t.Fatalf("unexpected message: %q", result.Message)
			}
			if repo.refundCalled != 0 {
				t.Fatal("expected no refund for a settled transaction")
			}
		})
	}
}

func TestReconcile_LostRefundRaceReportsAlreadyCompleted(t *testing.T) {
	tx := pendingTransaction("cust-ref-1", "1000")
	repo := &reconcileRepoStub{
		txByRef:       map[string]*domain.Transaction{"cust-ref-1": tx},
		user:          &domain.User{ID: tx.UserID},
		refundOutcome: false, // a concurrent delivery settled it first
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "failed"
	payload.Transaction.CustomerReference = "cust-ref-1"

	result, err := service.HandleSMEPlugWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !result.AlreadyCompleted {
		t.Fatalf("expected already-completed response for lost race, got %+v", result)
	}
	if repo.refundCalled != 1 {
		t.Fatalf("expected the conditional refund to be attempted once, got %d", repo.refundCalled)
	}
}

func TestHandleSMEPlugWebhook_UnknownReference(t *testing.T) {
	repo := &reconcileRepoStub{}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.SMEPlugWebhook{}
	payload.Transaction.Status = "failed"
	payload.Transaction.CustomerReference = "missing"

	_, err := service.HandleSMEPlugWebhook(context.Background(), payload)
	if !errors.Is(err, store.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestHandleVTPassWebhook_RejectsNonTransactionUpdate(t *testing.T) {
	repo := &reconcileRepoStub{}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.VTPassWebhook{Type: "variations-update"}
	_, err := service.HandleVTPassWebhook(context.Background(), payload)
	if !errors.Is(err, ErrInvalidWebhookType) {
		t.Fatalf("expected ErrInvalidWebhookType, got %v", err)
	}
}

func TestHandleVTPassWebhook_RefundCodes(t *testing.T) {
	for _, code := range []string{"040", "016"} {
		t.Run(code, func(t *testing.T) {
			tx := pendingTransaction("req-1", "500")
			repo := &reconcileRepoStub{
				txByRef:       map[string]*domain.Transaction{"req-1": tx},
				user:          &domain.User{ID: tx.UserID},
				refundOutcome: true,
			}
			service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

			payload := domain.VTPassWebhook{Type: "transaction-update"}
			payload.Data.Code = code
			payload.Data.RequestID = "req-1"

			result, err := service.HandleVTPassWebhook(context.Background(), payload)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if !result.Updated {
				t.Fatalf("expected refund for code %s, got %+v", code, result)
			}
			if repo.refundCalled != 1 || repo.successCalled != 0 {
				t.Fatalf("expected refund path, got refund=%d success=%d", repo.refundCalled, repo.successCalled)
			}
		})
	}
}

func TestHandleVTPassWebhook_SuccessCodeMarksSuccessWithoutRefund(t *testing.T) {
	tx := pendingTransaction("req-1", "500")
	repo := &reconcileRepoStub{
		txByRef:        map[string]*domain.Transaction{"req-1": tx},
		successOutcome: true,
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.VTPassWebhook{Type: "transaction-update"}
	payload.Data.Code = "000"
	payload.Data.RequestID = "req-1"

	result, err := service.HandleVTPassWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !result.Updated {
		t.Fatalf("expected success transition, got %+v", result)
	}
	if repo.successCalled != 1 || repo.refundCalled != 0 {
		t.Fatalf("expected success path, got refund=%d success=%d", repo.refundCalled, repo.successCalled)
	}
}

func TestHandleVTPassWebhook_UnknownCodeAcknowledgesWithoutMutation(t *testing.T) {
	tx := pendingTransaction("req-1", "500")
	repo := &reconcileRepoStub{
		txByRef: map[string]*domain.Transaction{"req-1": tx},
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.VTPassWebhook{Type: "transaction-update"}
	payload.Data.Code = "099"
	payload.Data.RequestID = "req-1"

	result, err := service.HandleVTPassWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Updated || result.AlreadyCompleted {
		t.Fatalf("expected plain acknowledgement, got %+v", result)
	}
	if repo.refundCalled != 0 || repo.successCalled != 0 {
		t.Fatal("expected no status transition")
	}
}

func TestHandleVTPassWebhook_FallsBackToMetaReference(t *testing.T) {
	tx := pendingTransaction("internal-ref", "500")
	repo := &reconcileRepoStub{
		txByMetaRef:   map[string]*domain.Transaction{"req-1": tx},
		user:          &domain.User{ID: tx.UserID},
		refundOutcome: true,
	}
	service := NewService(repo, &billstackStub{}, nil, nil, testConfig())

	payload := domain.VTPassWebhook{Type: "transaction-update"}
	payload.Data.Code = "040"
	payload.Data.RequestID = "req-1"

	result, err := service.HandleVTPassWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected meta fallback to resolve the transaction, got %v", err)
	}
	if !result.Updated {
		t.Fatalf("expected refund via meta reference, got %+v", result)
	}
}
