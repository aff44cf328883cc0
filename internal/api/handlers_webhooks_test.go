package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

func pendingTx(txRef string) *domain.Transaction {
	return &domain.Transaction{
		ID:     uuid.New(),
		Amount: decimal.RequireFromString("1000"),
		Status: domain.TransactionStatusPending,
		TxRef:  txRef,
		Type:   domain.TransactionTypeData,
		UserID: uuid.New(),
	}
}

func TestSMEPlugWebhookHandler_RefundsFailedTransaction(t *testing.T) {
	tx := pendingTx("cust-ref-1")
	repo := &handlerRepoStub{
		tx:            tx,
		user:          &domain.User{ID: tx.UserID},
		refundOutcome: true,
	}
	h := newTestHandlers(repo, &handlerBillstackStub{}, &schedulerStub{})

	rec := postJSON(t, h.SMEPlugWebhookHandler, "/api/webhooks/sme-plug", map[string]interface{}{
		"transaction": map[string]string{
			"status":             "failed",
			"customer_reference": "cust-ref-1",
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Transaction updated successfully" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected status field 200, got %d", resp.Status)
	}
}

func TestSMEPlugWebhookHandler_UnknownReference(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerBillstackStub{}, &schedulerStub{})

	rec := postJSON(t, h.SMEPlugWebhookHandler, "/api/webhooks/sme-plug", map[string]interface{}{
		"transaction": map[string]string{
			"status":             "failed",
			"customer_reference": "missing",
		},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Transaction with this reference not found." {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestSMEPlugWebhookHandler_AlreadyCompleted(t *testing.T) {
	tx := pendingTx("cust-ref-1")
	tx.Status = domain.TransactionStatusRefunded
	repo := &handlerRepoStub{tx: tx}
	h := newTestHandlers(repo, &handlerBillstackStub{}, &schedulerStub{})

	rec := postJSON(t, h.SMEPlugWebhookHandler, "/api/webhooks/sme-plug", map[string]interface{}{
		"transaction": map[string]string{
			"status":             "failed",
			"customer_reference": "cust-ref-1",
		},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Transaction with this reference has already been completed." {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestVTPassWebhookHandler_RejectsInvalidType(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerBillstackStub{}, &schedulerStub{})

	rec := postJSON(t, h.VTPassWebhookHandler, "/api/webhooks/vt-pass", map[string]interface{}{
		"type": "variations-update",
		"data": map[string]string{"code": "000", "requestId": "req-1"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Invalid webhook type." {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestVTPassWebhookHandler_RefundCode(t *testing.T) {
	tx := pendingTx("req-1")
	repo := &handlerRepoStub{
		tx:            tx,
		user:          &domain.User{ID: tx.UserID},
		refundOutcome: true,
	}
	h := newTestHandlers(repo, &handlerBillstackStub{}, &schedulerStub{})

	rec := postJSON(t, h.VTPassWebhookHandler, "/api/webhooks/vt-pass", map[string]interface{}{
		"type": "transaction-update",
		"data": map[string]string{"code": "040", "requestId": "req-1"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVTPassWebhookHandler_MalformedBody(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerBillstackStub{}, &schedulerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/vt-pass", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.VTPassWebhookHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
